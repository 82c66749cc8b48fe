package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/samaysahu/Vox-GPT/pkg/server"
)

// RemoteOptions locate a running relay.
type RemoteOptions struct {
	Server  string        `short:"s" long:"server" description:"Relay address (default: listen_addr from config)"`
	Timeout time.Duration `long:"timeout" default:"2m" description:"Request timeout"`
}

func (o RemoteOptions) client() (*server.Client, error) {
	addr := o.Server
	if addr == "" {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		addr = cfg.ListenAddr
	}
	return server.NewClient(addr, o.Timeout), nil
}

type SendCommand struct {
	RemoteOptions
}

func (c *SendCommand) Execute(args []string) error {
	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		return errors.New("usage: voxgpt send <message>")
	}

	client, err := c.client()
	if err != nil {
		return err
	}
	reply, err := client.Chat(context.Background(), message)
	if err != nil {
		return err
	}
	fmt.Println(reply)
	return nil
}
