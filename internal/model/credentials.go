package model

// PlatformCredentials authenticate calls to the commerce platform. They come from process
// configuration only and are never decoded from a request body.
type PlatformCredentials struct {
	APIKey         string `json:"-"`
	APISecret      string `json:"-"`
	ShopIdentifier string `json:"shopIdentifier"`
}

func (c PlatformCredentials) Complete() bool {
	return c.APIKey != "" && c.APISecret != "" && c.ShopIdentifier != ""
}

// MailSender is the account used to deliver customer notifications.
type MailSender struct {
	Address string `json:"address"`
	Secret  string `json:"-"`
	Name    string `json:"name,omitempty"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
	SSL     bool   `json:"ssl"`
}

func (s MailSender) Complete() bool {
	return s.Address != "" && s.Secret != ""
}
