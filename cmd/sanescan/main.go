// Command sanescan is a thin CLI over the sane package: list devices,
// show a device's options, or scan an image to a file.
package main

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/image/tiff"

	"github.com/lolhens/gosane"
	"github.com/lolhens/gosane/internal/config"
)

var unitName = map[sane.Unit]string{
	sane.UnitPixel:       "pixels",
	sane.UnitBit:         "bits",
	sane.UnitMm:          "millimetres",
	sane.UnitDpi:         "dots per inch",
	sane.UnitPercent:     "percent",
	sane.UnitMicrosecond: "microseconds",
}

type encodeFunc func(io.Writer, image.Image) error

func pathToEncoder(p string) (encodeFunc, error) {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".png":
		return png.Encode, nil
	case ".jpg", ".jpeg":
		return func(w io.Writer, m image.Image) error { return jpeg.Encode(w, m, nil) }, nil
	case ".tif", ".tiff":
		return func(w io.Writer, m image.Image) error { return tiff.Encode(w, m, nil) }, nil
	default:
		return nil, fmt.Errorf("unrecognized output extension %q", filepath.Ext(p))
	}
}

func print(f string, v ...interface{}) {
	fmt.Fprintf(os.Stderr, f, v...)
}

func printWrapped(text string, indent, width int) {
	indentStr := strings.Repeat(" ", indent)
	for _, line := range strings.Split(text, "\n") {
		pos := 0
		for _, word := range strings.Fields(line) {
			if pos+len(word) > width {
				print("\n")
				pos = 0
			}
			if pos == 0 {
				print("%s%s", indentStr, word)
			} else {
				print(" %s", word)
			}
			pos += len(word) + 1
		}
		print("\n")
	}
}

func printConstraints(o *sane.Option) {
	first := true
	if o.IsAutomatic() {
		print(" auto")
		first = false
	}
	switch o.ConstraintKind {
	case sane.ConstraintRange:
		r := o.Range
		if first {
			print(" %v..%v", r.Min, r.Max)
		} else {
			print("|%v..%v", r.Min, r.Max)
		}
		if r.Quant != 0 {
			print(" in steps of %v", r.Quant)
		}
	case sane.ConstraintWordList:
		for _, v := range o.WordList {
			if first {
				print(" %v", v)
				first = false
			} else {
				print("|%v", v)
			}
		}
	case sane.ConstraintStringList:
		for _, v := range o.StringList {
			if first {
				print(" %v", v)
				first = false
			} else {
				print("|%v", v)
			}
		}
	}
}

func printOption(o *sane.Option, v interface{}) {
	print("    -%s", o.Name)
	printConstraints(o)
	if v != nil {
		print(" [%v]", v)
	} else if !o.IsActive() {
		print(" [inactive]")
	} else {
		print(" [?]")
	}
	if name, ok := unitName[o.Units]; ok {
		print(" %s", name)
	}
	print("\n")
	printWrapped(o.Description, 8, 70)
}

func findOption(opts []*sane.Option, name string) (*sane.Option, error) {
	for _, o := range opts {
		if o.Name == name {
			return o, nil
		}
	}
	return nil, fmt.Errorf("no such option: %s", name)
}

func readOptionValue(o *sane.Option) (interface{}, error) {
	switch o.Kind {
	case sane.KindBool:
		return o.GetBool()
	case sane.KindInt:
		return o.GetInt()
	case sane.KindFixed:
		return o.GetFixed()
	case sane.KindString:
		return o.GetString()
	default:
		return nil, nil
	}
}

func applyOption(o *sane.Option, raw string) error {
	if o.IsAutomatic() && raw == "auto" {
		_, err := o.SetAuto()
		return err
	}
	var err error
	switch o.Kind {
	case sane.KindBool:
		var v bool
		if raw == "yes" || raw == "true" || raw == "1" {
			v = true
		} else if raw == "no" || raw == "false" || raw == "0" {
			v = false
		} else {
			return fmt.Errorf("not a boolean value: %s", raw)
		}
		_, err = o.SetBool(v)
	case sane.KindInt:
		n, convErr := strconv.Atoi(raw)
		if convErr != nil {
			return fmt.Errorf("not an integer: %s", raw)
		}
		_, err = o.SetInt(int32(n))
	case sane.KindFixed:
		f, convErr := strconv.ParseFloat(raw, 64)
		if convErr != nil {
			return fmt.Errorf("not a number: %s", raw)
		}
		_, err = o.SetFixed(f)
	case sane.KindString:
		_, _, err = o.SetString(raw)
	case sane.KindButton:
		_, err = o.PressButton()
	}
	return err
}

func parseOptionArgs(dev *sane.Device, args []string) error {
	if len(args)%2 != 0 {
		return fmt.Errorf("expected option/value pairs")
	}
	opts, err := dev.ListOptions()
	if err != nil {
		return err
	}
	for i := 0; i < len(args); i += 2 {
		if !strings.HasPrefix(args[i], "-") {
			return fmt.Errorf("invalid argument: %s", args[i])
		}
		o, err := findOption(opts, strings.TrimPrefix(args[i], "-"))
		if err != nil {
			return err
		}
		if err := applyOption(o, args[i+1]); err != nil {
			return err
		}
	}
	return nil
}

func openDevice(sess *sane.Session, name string) (*sane.Device, error) {
	dev := sess.Device(name)
	if err := dev.Open(); err == nil {
		return dev, nil
	}
	devs, err := sess.ListDevices()
	if err != nil {
		return nil, err
	}
	for _, d := range devs {
		if strings.Contains(d.Name, name) {
			dev := sess.DeviceByDescriptor(d)
			if err := dev.Open(); err != nil {
				return nil, err
			}
			return dev, nil
		}
	}
	return nil, fmt.Errorf("no device named %s", name)
}

func listDevices(sess *sane.Session) {
	devs, err := sess.ListDevices()
	if err != nil {
		die(err)
	}
	if len(devs) == 0 {
		print("No available devices.\n")
	}
	for _, d := range devs {
		print("Device %s is a %s %s %s\n", d.Name, d.Vendor, d.Model, d.Type)
	}
}

func showOptions(sess *sane.Session, name string) {
	dev, err := openDevice(sess, name)
	if err != nil {
		die(err)
	}
	defer dev.Close()

	opts, err := dev.ListOptions()
	if err != nil {
		die(err)
	}
	lastGroup := ""
	print("Options for device %s:\n", dev.Descriptor().Name)
	for _, o := range opts {
		if !o.IsSettable() {
			continue
		}
		if o.Group != lastGroup {
			print("  %s:\n", o.Group)
			lastGroup = o.Group
		}
		v, _ := readOptionValue(o)
		printOption(o, v)
	}
}

func doScan(sess *sane.Session, deviceName, fileName string, optArgs []string) {
	enc, err := pathToEncoder(fileName)
	if err != nil {
		die(err)
	}

	f, err := os.Create(fileName)
	if err != nil {
		die(err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			die(err)
		}
	}()

	dev, err := openDevice(sess, deviceName)
	if err != nil {
		die(err)
	}
	defer dev.Close()

	if err := parseOptionArgs(dev, optArgs); err != nil {
		die(err)
	}

	img, err := dev.AcquireImage(nil)
	if err != nil {
		die(err)
	}

	if err := enc(f, img); err != nil {
		die(err)
	}
}

func usage() {
	exeName := path.Base(os.Args[0])
	print("Usage: %s [flags] list\n", exeName)
	print("       %s [flags] show <device-name>\n", exeName)
	print("       %s [flags] scan <device-name> <output-file> [OPTIONS...]\n", exeName)
	os.Exit(1)
}

func die(v ...interface{}) {
	if len(v) > 0 {
		fmt.Fprintln(os.Stderr, v...)
	}
	os.Exit(1)
}

func main() {
	cfg, err := config.LoadFile(os.Getenv("SANESCAN_CONFIG"), config.Defaults())
	if err != nil {
		die(err)
	}
	fs := pflag.NewFlagSet("sanescan", pflag.ExitOnError)
	config.RegisterFlags(fs, &cfg)
	if err := fs.Parse(os.Args[1:]); err != nil {
		die(err)
	}
	args := fs.Args()
	if len(args) < 1 {
		usage()
	}

	var passwords sane.PasswordProvider
	if cfg.PasswordFile != "" {
		if store, err := sane.LoadPasswordStore(cfg.PasswordFile); err == nil {
			passwords = store
		}
	} else if defaultPath, err := sane.DefaultPasswordFile(); err == nil {
		if store, err := sane.LoadPasswordStore(defaultPath); err == nil {
			passwords = store
		}
	}

	sess, err := sane.Open(cfg.Address, cfg.Port, sane.Options{
		Timeout:          cfg.Timeout,
		PasswordProvider: passwords,
	})
	if err != nil {
		die(err)
	}
	defer sess.Close()

	switch args[0] {
	case "list":
		listDevices(sess)
	case "show":
		if len(args) != 2 {
			usage()
		}
		showOptions(sess, args[1])
	case "scan":
		if len(args) < 3 {
			usage()
		}
		doScan(sess, args[1], args[2], args[3:])
	default:
		usage()
	}
}
