package config

import "github.com/urfave/cli/v3"

// Server holds server configuration
type Server struct {
	Addr         string
	SecureCookie bool
}

// Flags returns CLI flags for server configuration
func (c *Server) Flags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "addr",
			Usage:       "Server address",
			Value:       "localhost:8000",
			Destination: &c.Addr,
			Sources:     cli.EnvVars("KMA_ADDR"),
		},
		&cli.BoolFlag{
			Name:        "secure-cookie",
			Usage:       "Set the Secure attribute on the client_id cookie",
			Destination: &c.SecureCookie,
			Sources:     cli.EnvVars("KMA_SECURE_COOKIE"),
		},
	}
}
