package shell

import (
	"errors"
	"fmt"

	"github.com/abiosoft/ishell"
	yaml "gopkg.in/yaml.v2"

	"github.com/juruen/inkmath/config"
)

func configCmd(ctx *ShellCtxt) *ishell.Cmd {
	return &ishell.Cmd{
		Name: "config",
		Help: "show or change settings, usage: config [set <key> <value> | save]",
		LongHelp: `Usage: config                    show the settings
       config set <key> <value>  change one setting, e.g. config set workers 2
       config save               write the settings file`,
		Completer: func(args []string) []string {
			if len(args) <= 1 {
				return []string{"set", "save"}
			}
			return nil
		},
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				out, err := yaml.Marshal(ctx.Config)
				if err != nil {
					c.Err(err)
					return
				}
				c.Print(string(out))
				return
			}

			switch c.Args[0] {
			case "set":
				if len(c.Args) != 3 {
					c.Err(errors.New("usage: config set <key> <value>"))
					return
				}
				if err := setConfig(ctx, c.Args[1], c.Args[2]); err != nil {
					c.Err(err)
					return
				}
				if !ctx.Recognizer.Available() {
					c.Println("recognition unavailable")
					return
				}
				c.Println("OK")
			case "save":
				if err := config.Save(ctx.ConfigPath, ctx.Config); err != nil {
					c.Err(err)
					return
				}
				c.Println(fmt.Sprintf("saved %s", ctx.ConfigPath))
			default:
				c.Err(fmt.Errorf("unknown config command %q", c.Args[0]))
			}
		},
	}
}

// setConfig decodes "key: value" over the current settings so every
// field keeps its yaml name and type
func setConfig(ctx *ShellCtxt, key, value string) error {
	cfg := ctx.Config
	if err := yaml.UnmarshalStrict([]byte(fmt.Sprintf("%s: %s", key, value)), &cfg); err != nil {
		return fmt.Errorf("can't set %s: %v", key, err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx.Config = cfg
	ctx.reload()
	return nil
}
