package main

import (
	"os"

	"github.com/jessevdk/go-flags"

	"github.com/samaysahu/Vox-GPT/pkg/config"
)

type Options struct {
	Config string `short:"c" long:"config" default:"voxgpt.json" description:"Path to the config file"`

	Serve    ServeCommand    `command:"serve" description:"Run the relay HTTP server"`
	Send     SendCommand     `command:"send" description:"Send one chat message to a running relay"`
	Chat     ChatCommand     `command:"chat" description:"Interactive chat with a running relay"`
	Monitor  MonitorCommand  `command:"monitor" alias:"teleop" description:"Live joint chart with keyboard jog control"`
	History  HistoryCommand  `command:"history" description:"Show recently handled commands"`
	Setup    SetupCommand    `command:"setup" description:"Create or edit the config file"`
	Simulate SimulateCommand `command:"simulate" alias:"sim" description:"Serve a simulated arm controller"`
}

var opts Options
var parser = flags.NewParser(&opts, flags.Default)

func main() {
	parser.LongDescription = "voxgpt - natural-language command relay for a desktop robot arm"

	_, err := parser.Parse()
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				os.Exit(0)
			}
		}
		os.Exit(1)
	}
}

// loadConfig reads .env and then the config file named by --config.
func loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnv(config.DefaultEnvFile); err != nil {
		return nil, err
	}
	return config.LoadFrom(configPath())
}

func configPath() string {
	if opts.Config == "" {
		return config.DefaultConfigFile
	}
	return opts.Config
}
