// Command sanepass inspects a SANE credential file: it reports which
// backends it holds credentials for, or validates one file against a
// given backend/resource string.
package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/pflag"

	"github.com/lolhens/gosane"
)

func main() {
	var path string
	fs := pflag.NewFlagSet("sanepass", pflag.ExitOnError)
	fs.StringVar(&path, "password-file", "", "path to a SANE credential file (default $HOME/.sane/pass)")
	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if path == "" {
		var err error
		path, err = sane.DefaultPasswordFile()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	store, err := sane.LoadPasswordStore(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sanepass: %s: %v\n", path, err)
		os.Exit(1)
	}

	args := fs.Args()
	if len(args) == 0 {
		backends := store.Backends()
		sort.Strings(backends)
		if len(backends) == 0 {
			fmt.Printf("%s: no credentials\n", path)
			return
		}
		fmt.Printf("%s: credentials for %d backend(s):\n", path, len(backends))
		for _, b := range backends {
			fmt.Printf("  %s\n", b)
		}
		return
	}

	resource := args[0]
	cred, ok := store.Lookup(resource)
	if !ok {
		fmt.Printf("no credential for resource %q\n", resource)
		os.Exit(1)
	}
	fmt.Printf("resource %q resolves to user %q on backend %q\n", resource, cred.User, cred.Backend)
}
