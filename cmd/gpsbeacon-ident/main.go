// Command gpsbeacon-ident writes the station identity record into an EEPROM
// image file or a 24Cxx EEPROM on an I2C bus, or prints the current one.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"gpsbeacon/internal/config"
	"gpsbeacon/internal/i2c"
	"gpsbeacon/internal/identity"
)

// imageSize matches a 24C02, the smallest part the board takes.
const imageSize = 256

type options struct {
	storage identity.StorageConfig
	station string
	sync    string
	create  bool
	erase   bool
}

// provision applies opts to s and returns the record left in storage.
func provision(s io.ReaderAt, w io.WriterAt, opts options) (identity.Record, error) {
	switch {
	case opts.erase:
		var blank [identity.RecordSize]byte
		for i := range blank {
			blank[i] = 0xFF
		}
		if _, err := w.WriteAt(blank[:], 0); err != nil {
			return identity.Record{}, errors.Wrap(err, "erase")
		}
	case opts.station != "":
		sw, err := identity.ParseSync(opts.sync)
		if err != nil {
			return identity.Record{}, err
		}
		rec, err := identity.New(opts.station, sw)
		if err != nil {
			return identity.Record{}, err
		}
		if err := identity.Store(w, rec); err != nil {
			return identity.Record{}, err
		}
	}
	return identity.Load(s)
}

func openStorage(opts options) (identity.Storage, error) {
	if opts.storage.Backend == "file" && opts.create {
		if _, err := os.Stat(opts.storage.Path); os.IsNotExist(err) {
			if err := os.MkdirAll(filepath.Dir(opts.storage.Path), 0o755); err != nil {
				return nil, errors.Wrap(err, "create image dir")
			}
			return identity.CreateImage(opts.storage.Path, imageSize)
		}
	}
	return identity.OpenStorage(opts.storage)
}

func main() {
	var opts options
	pflag.StringVarP(&opts.storage.Backend, "backend", "b", "file", "Storage backend: file or i2c")
	pflag.StringVarP(&opts.storage.Path, "path", "p", config.DefaultIdentityPath, "EEPROM image file (file backend)")
	pflag.StringVar(&opts.storage.I2CBus, "i2c-bus", "/dev/i2c-1", "I2C bus device (i2c backend)")
	pflag.Uint16Var(&opts.storage.I2CAddr, "i2c-addr", i2c.DefaultEEPROMAddr, "EEPROM address (i2c backend)")
	pflag.BoolVar(&opts.storage.I2CWideAddr, "i2c-wide", false, "EEPROM uses 16-bit word addresses (24C32 and larger)")
	pflag.StringVarP(&opts.station, "station", "i", "", "Station identifier, at most 6 characters; empty only prints")
	pflag.StringVarP(&opts.sync, "sync", "s", "2DD4", "Network sync words, 4 hex digits")
	pflag.BoolVar(&opts.create, "create", false, "Create the image file if it does not exist")
	pflag.BoolVar(&opts.erase, "erase", false, "Erase the record to 0xFF")
	pflag.Parse()

	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "gpsbeacon-ident: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, out io.Writer) error {
	if opts.erase && opts.station != "" {
		return errors.New("--erase and --station are exclusive")
	}
	if opts.storage.Backend == "file" {
		p, err := homedir.Expand(opts.storage.Path)
		if err != nil {
			return errors.Wrapf(err, "expand %s", opts.storage.Path)
		}
		opts.storage.Path = p
	}
	s, err := openStorage(opts)
	if err != nil {
		return err
	}
	defer s.Close()

	rec, err := provision(s, s, opts)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, rec)
	return err
}
