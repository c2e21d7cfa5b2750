// hades-cli 向 hades-server 发送命令并打印回复。
//
// 带参数时执行一条命令，否则从标准输入逐行读取命令。
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/chengsir22/hades/redis/client"
	"github.com/chengsir22/hades/redis/resp"
)

func main() {
	app := &cli.App{
		Name:      "hades-cli",
		Usage:     "send commands to a hades server",
		ArgsUsage: "[command [arg ...]]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Aliases: []string{"a"},
				Usage:   "server address",
				EnvVars: []string{"HADES_ADDR"},
				Value:   "127.0.0.1:6379",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "dial and request timeout",
				Value: 5 * time.Second,
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cl, err := client.Dial(c.String("addr"), c.Duration("timeout"))
	if err != nil {
		return err
	}
	defer cl.Close()

	if c.NArg() > 0 {
		reply, err := cl.Do(c.Args().Slice()...)
		if err != nil {
			return err
		}
		fmt.Fprint(c.App.Writer, format(reply, ""))
		return nil
	}
	return repl(cl, os.Stdin, c.App.Writer, c.String("addr"))
}

func repl(cl *client.Client, in io.Reader, out io.Writer, addr string) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprintf(out, "%s> ", addr)
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		args := splitArgs(sc.Text())
		if len(args) == 0 {
			continue
		}
		reply, err := cl.Do(args...)
		if err != nil {
			return err
		}
		fmt.Fprint(out, format(reply, ""))
		if strings.EqualFold(args[0], "quit") {
			return nil
		}
	}
}

// splitArgs 按空白切分，双引号内的内容作为一个参数
func splitArgs(line string) []string {
	var (
		args    []string
		cur     strings.Builder
		quoted  bool
		pending bool
	)
	for _, r := range line {
		switch {
		case r == '"':
			quoted = !quoted
			pending = true
		case !quoted && (r == ' ' || r == '\t'):
			if pending {
				args = append(args, cur.String())
				cur.Reset()
				pending = false
			}
		default:
			cur.WriteRune(r)
			pending = true
		}
	}
	if pending {
		args = append(args, cur.String())
	}
	return args
}

// format 按 redis-cli 的风格输出回复
func format(f resp.Frame, indent string) string {
	switch v := f.(type) {
	case resp.SimpleString:
		return string(v) + "\n"
	case resp.Error:
		return "(error) " + string(v) + "\n"
	case resp.Integer:
		return "(integer) " + strconv.FormatInt(int64(v), 10) + "\n"
	case resp.BulkString:
		if v.Null {
			return "(nil)\n"
		}
		return strconv.Quote(string(v.Data)) + "\n"
	case resp.Null:
		return "(nil)\n"
	case resp.Array:
		if v.Null {
			return "(nil)\n"
		}
		if len(v.Elems) == 0 {
			return "(empty array)\n"
		}
		var sb strings.Builder
		width := len(strconv.Itoa(len(v.Elems)))
		pad := indent + strings.Repeat(" ", width+2)
		for i, e := range v.Elems {
			if i > 0 {
				sb.WriteString(indent)
			}
			fmt.Fprintf(&sb, "%*d) ", width, i+1)
			sb.WriteString(format(e, pad))
		}
		return sb.String()
	default:
		return fmt.Sprintf("%v\n", f)
	}
}
