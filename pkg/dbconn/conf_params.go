package dbconn

import (
	"github.com/block/qualitychecker/pkg/dialect"
	"github.com/go-ini/ini"
)

const (
	defaultHost     = "127.0.0.1"
	defaultDatabase = "dwh"
	defaultUsername = "dq"
	defaultPassword = ""
)

// ConfParams abstracts connection parameters loaded from an ini file.
// Getters provide defaults when the receiver is nil or a key is absent.
type ConfParams struct {
	host, database, user, tlsMode string
	password                      *string
	port                          int
}

func (c *ConfParams) GetHost() string {
	if c == nil || c.host == "" {
		return defaultHost
	}

	return c.host
}

func (c *ConfParams) GetDatabase() string {
	if c == nil || c.database == "" {
		return defaultDatabase
	}

	return c.database
}

func (c *ConfParams) GetUser() string {
	if c == nil || c.user == "" {
		return defaultUsername
	}

	return c.user
}

func (c *ConfParams) GetPassword() string {
	if c == nil || c.password == nil {
		return defaultPassword
	}

	return *c.password
}

// N.B. There is no default for tls-mode; each driver applies its own.
func (c *ConfParams) GetTLSMode() string {
	if c == nil {
		return ""
	}

	return c.tlsMode
}

// GetPort returns the configured port, or the dialect's default.
func (c *ConfParams) GetPort(d dialect.Dialect) int {
	if c == nil || c.port == 0 {
		return d.DefaultPort()
	}

	return c.port
}

// ConnParams resolves every getter into the parameters for dialect d.
func (c *ConfParams) ConnParams(d dialect.Dialect) dialect.ConnParams {
	return dialect.ConnParams{
		Host:     c.GetHost(),
		Port:     c.GetPort(d),
		Database: c.GetDatabase(),
		User:     c.GetUser(),
		Password: c.GetPassword(),
		TLSMode:  c.GetTLSMode(),
	}
}

// LoadConfParams attempts to load a ConfParams struct from a path to an
// ini file. The [client] section is read; a missing path yields all
// defaults.
func LoadConfParams(confFilePath string) (*ConfParams, error) {
	confParams := &ConfParams{}

	if confFilePath == "" {
		return confParams, nil
	}

	creds, err := ini.Load(confFilePath)
	if err != nil {
		return nil, err
	}

	if creds.HasSection("client") {
		clientSection := creds.Section("client")
		confParams.host = clientSection.Key("host").String()
		confParams.database = clientSection.Key("database").String()
		confParams.user = clientSection.Key("user").String()
		confParams.tlsMode = clientSection.Key("tls-mode").String()
		confParams.port = clientSection.Key("port").MustInt()

		if clientSection.HasKey("password") {
			pw := clientSection.Key("password").String()
			confParams.password = &pw
		}
	}

	return confParams, nil
}
