package xtaf

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/dsoprea/go-logging"
	"github.com/jessevdk/go-flags"
)

const (
	// DefaultDeviceNamePrefix is prepended to the slot-index to name
	// registered devices.
	DefaultDeviceNamePrefix = "sda"
)

// Config controls a mount session. The tags let the same struct be filled
// from command-line flags or from an ini file.
type Config struct {
	CachePages       uint32 `long:"cache-pages" description:"Number of cached pages per partition"`
	SectorsPerPage   uint32 `long:"sectors-per-page" description:"Number of sectors in one cache page"`
	DevkitByteOrder  string `long:"devkit-byte-order" description:"Byte-order of the devkit partition-table" choice:"big" choice:"little" choice:"native"`
	SkipDevkitProbe  bool   `long:"skip-devkit-probe" description:"Don't look for a devkit partition-table"`
	DeviceNamePrefix string `long:"device-prefix" description:"Prefix for registered device names"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		CachePages:       DefaultCachePages,
		SectorsPerPage:   DefaultSectorsPerPage,
		DevkitByteOrder:  "big",
		DeviceNamePrefix: DefaultDeviceNamePrefix,
	}
}

// LoadConfig reads an ini document over the defaults. Options belong in the
// "[Application Options]" section.
func LoadConfig(r io.Reader) (config Config, err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok == true {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(err).Name(), err)
			}
		}
	}()

	config = DefaultConfig()

	p := flags.NewParser(&config, flags.None)
	ip := flags.NewIniParser(p)

	err = ip.Parse(r)
	log.PanicIf(err)

	err = config.Validate()
	log.PanicIf(err)

	return config, nil
}

// LoadConfigFile reads the ini file at the given path over the defaults.
func LoadConfigFile(filepath string) (config Config, err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok == true {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(err).Name(), err)
			}
		}
	}()

	f, err := os.Open(filepath)
	log.PanicIf(err)

	defer f.Close()

	config, err = LoadConfig(f)
	log.PanicIf(err)

	return config, nil
}

// ResolveConfig builds the configuration for a tool. The ini file at
// `filepath` is read over the defaults if a path is given, and then any of the
// options present in `args` are applied over that. Arguments that aren't
// configuration options are ignored.
func ResolveConfig(filepath string, args []string) (config Config, err error) {
	defer func() {
		if errRaw := recover(); errRaw != nil {
			var ok bool
			if err, ok = errRaw.(error); ok == true {
				err = log.Wrap(err)
			} else {
				err = log.Errorf("Error not an error: [%s] [%v]", reflect.TypeOf(err).Name(), err)
			}
		}
	}()

	if filepath != "" {
		config, err = LoadConfigFile(filepath)
		log.PanicIf(err)
	} else {
		config = DefaultConfig()
	}

	p := flags.NewParser(&config, flags.IgnoreUnknown)

	_, err = p.ParseArgs(args)
	log.PanicIf(err)

	err = config.Validate()
	log.PanicIf(err)

	return config, nil
}

// Validate checks the option values.
func (config Config) Validate() error {
	switch config.DevkitByteOrder {
	case "big", "little", "native":
	default:
		return fmt.Errorf("devkit byte-order not valid: [%s]", config.DevkitByteOrder)
	}

	if config.DeviceNamePrefix == "" {
		return fmt.Errorf("device-name prefix can not be empty")
	}

	return nil
}

// ByteOrder returns the byte-order to decode the devkit partition-table with.
// The console writes it big-endian.
func (config Config) ByteOrder() binary.ByteOrder {
	switch config.DevkitByteOrder {
	case "little":
		return binary.LittleEndian
	case "native":
		return binary.NativeEndian
	}

	return binary.BigEndian
}

// CacheConfig returns the per-partition cache parameters.
func (config Config) CacheConfig() CacheConfig {
	return CacheConfig{
		PageCount:      config.CachePages,
		SectorsPerPage: config.SectorsPerPage,
	}
}
