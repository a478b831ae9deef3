// Package interactive provides the interactive command-line interface
// for roomlink-client.
package interactive

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/chzyer/readline"

	"github.com/roomlink/roomlink-go/pkg/connection"
)

// Supervisor is the part of connection.Supervisor the REPL drives.
type Supervisor interface {
	Room() string
	Status() connection.Status
	State() connection.State
	RetryState() connection.RetryState
	Session() (connection.Sender, bool)
	Send(payload []byte) error
	Subscribe(fn func(connection.Status)) (unsubscribe func())
	OnMessage(fn func([]byte)) (unsubscribe func())
}

// Reachability is a manual reachability override.
// Implemented by reachability.Override.
type Reachability interface {
	Force(reachable bool)
	Clear()
	Forced() (reachable, ok bool)
}

// Client handles interactive mode for roomlink-client.
type Client struct {
	sup   Supervisor
	reach Reachability
	out   io.Writer
	rl    *readline.Instance

	unsubscribe []func()
	closeOnce   sync.Once
}

// New creates a new interactive client. reach may be nil when reachability
// tracking is disabled.
func New(sup Supervisor, reach Reachability) (*Client, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          sup.Room() + "> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	c := newClient(sup, reach, rl.Stdout())
	c.rl = rl
	return c, nil
}

func newClient(sup Supervisor, reach Reachability, out io.Writer) *Client {
	c := &Client{sup: sup, reach: reach, out: out}
	c.unsubscribe = append(c.unsubscribe,
		sup.Subscribe(c.printStatus),
		sup.OnMessage(c.printMessage),
	)
	return c
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (c *Client) Stdout() io.Writer {
	return c.out
}

// Run starts the interactive command loop.
func (c *Client) Run(ctx context.Context, cancel context.CancelFunc) {
	defer c.Close()

	c.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := c.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if err == readline.ErrInterrupt {
				continue
			}
			fmt.Fprintln(c.out, "Exiting...")
			cancel()
			return
		}

		if !c.Execute(line) {
			cancel()
			return
		}
	}
}

// Execute runs one command line. It returns false when the user asked to quit.
func (c *Client) Execute(line string) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	parts := strings.Fields(input)
	cmd := strings.ToLower(parts[0])

	switch cmd {
	case "help", "?":
		c.printHelp()

	case "send", "s":
		c.cmdSend(strings.TrimSpace(input[len(parts[0]):]))

	case "status", "st":
		c.cmdStatus()

	case "online":
		c.cmdReachability(true)

	case "offline":
		c.cmdReachability(false)

	case "auto":
		c.cmdAuto()

	case "reconnect-info", "ri":
		c.cmdReconnectInfo()

	case "quit", "exit", "q":
		fmt.Fprintln(c.out, "Exiting...")
		return false

	default:
		fmt.Fprintf(c.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return true
}

// Close detaches from the supervisor and releases the terminal. A blocked
// Run returns. It is safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		for _, fn := range c.unsubscribe {
			fn()
		}
		if c.rl != nil {
			c.rl.Close()
		}
	})
}

func (c *Client) printHelp() {
	fmt.Fprintln(c.out, `
roomlink Client Commands:
  Messaging:
    send <text>        - Send a text payload to the room

  Connection:
    status             - Show connection status
    reconnect-info     - Show backoff progress

  Reachability:
    online             - Force the network reachable
    offline            - Force the network unreachable
    auto               - Return to automatic detection

  General:
    help               - Show this help
    quit               - Exit client`)
}

func (c *Client) printStatus(st connection.Status) {
	fmt.Fprintf(c.out, "[status] %s\n", st)
}

func (c *Client) printMessage(data []byte) {
	if utf8.Valid(data) {
		fmt.Fprintf(c.out, "< %s\n", data)
		return
	}
	fmt.Fprintf(c.out, "< (%d bytes binary)\n", len(data))
}

func (c *Client) cmdSend(text string) {
	if text == "" {
		fmt.Fprintln(c.out, "Usage: send <text>")
		return
	}
	if err := c.sup.Send([]byte(text)); err != nil {
		fmt.Fprintf(c.out, "Send failed: %v\n", err)
	}
}

func (c *Client) cmdStatus() {
	fmt.Fprintf(c.out, "Room:    %s\n", c.sup.Room())
	fmt.Fprintf(c.out, "Status:  %s\n", c.sup.Status())
	fmt.Fprintf(c.out, "State:   %s\n", c.sup.State())
	if s, ok := c.sup.Session(); ok {
		fmt.Fprintf(c.out, "Session: %s\n", s.ID())
	}
	if c.reach == nil {
		fmt.Fprintln(c.out, "Network: tracking disabled")
		return
	}
	if reachable, ok := c.reach.Forced(); ok {
		fmt.Fprintf(c.out, "Network: %s (forced)\n", reachableString(reachable))
	} else {
		fmt.Fprintln(c.out, "Network: automatic")
	}
}

func (c *Client) cmdReachability(reachable bool) {
	if c.reach == nil {
		fmt.Fprintln(c.out, "Reachability tracking is disabled")
		return
	}
	c.reach.Force(reachable)
	fmt.Fprintf(c.out, "Network forced %s\n", reachableString(reachable))
}

func (c *Client) cmdAuto() {
	if c.reach == nil {
		fmt.Fprintln(c.out, "Reachability tracking is disabled")
		return
	}
	c.reach.Clear()
	fmt.Fprintln(c.out, "Network detection automatic")
}

func (c *Client) cmdReconnectInfo() {
	rs := c.sup.RetryState()
	fmt.Fprintf(c.out, "State:      %s\n", c.sup.State())
	fmt.Fprintf(c.out, "Attempts:   %d\n", rs.Attempts)
	fmt.Fprintf(c.out, "Next delay: %s (before jitter)\n", rs.CurrentDelay)
}

func reachableString(reachable bool) string {
	if reachable {
		return "online"
	}
	return "offline"
}
