package main

import (
	"flag"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/ini.v1"
)

// Config holds canbridgectl's resolved defaults, loaded from
// ~/.canbridgectl.ini the same way gocanopen's examples load node
// configuration from an ini file.
type Config struct {
	Port     string
	Baud     int
	LogLevel string
}

func defaultConfig() Config {
	return Config{Port: "/dev/ttyACM0", Baud: 115200, LogLevel: "info"}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".canbridgectl.ini"
	}
	return filepath.Join(home, ".canbridgectl.ini")
}

// loadConfig reads path, falling back to defaultConfig for any key the
// file doesn't set, or entirely if the file doesn't exist.
func loadConfig(path string) Config {
	cfg := defaultConfig()

	f, err := ini.Load(path)
	if err != nil {
		return cfg
	}

	sec := f.Section("canbridgectl")
	cfg.Port = sec.Key("port").MustString(cfg.Port)
	cfg.Baud = sec.Key("baud").MustInt(cfg.Baud)
	cfg.LogLevel = sec.Key("log_level").MustString(cfg.LogLevel)

	return cfg
}

// runConfig implements `canbridgectl config`: it reports the resolved
// port/baud/log-level, and with -write creates the ini file with
// defaults if one isn't already there.
func runConfig(args []string) error {
	fs := flag.NewFlagSet("config", flag.ExitOnError)
	path := fs.String("file", defaultConfigPath(), "config file path")
	write := fs.Bool("write", false, "create the config file with defaults if missing")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if *write {
		if _, err := os.Stat(*path); os.IsNotExist(err) {
			f := ini.Empty()
			sec, err := f.NewSection("canbridgectl")
			if err != nil {
				return err
			}
			def := defaultConfig()
			sec.NewKey("port", def.Port)
			sec.NewKey("baud", "115200")
			sec.NewKey("log_level", def.LogLevel)
			if err := f.SaveTo(*path); err != nil {
				return err
			}
			log.WithField("path", *path).Info("wrote default config")
		}
	}

	cfg := loadConfig(*path)
	log.WithFields(log.Fields{
		"port":      cfg.Port,
		"baud":      cfg.Baud,
		"log_level": cfg.LogLevel,
	}).Info("resolved configuration")

	return nil
}
