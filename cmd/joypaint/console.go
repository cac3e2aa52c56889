package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joypaint/joypaint/internal/controller"
	"github.com/joypaint/joypaint/internal/device"
	"github.com/joypaint/joypaint/internal/replay"
)

const consoleHelp = `commands:
  status              show the current state
  press <A-F>         press a device button
  color <index>       select a palette color
  move <x> <y>        move the cursor
  mode                toggle absolute/centered joystick mode
  record | stoprec    start or stop recording
  sessions            list stored sessions
  play <id>           replay a session
  pause | resume | stop
  round [seconds]     start a timed round
  endround            end the timed round
  save <file.png>     write the canvas as PNG
  quit`

var errQuit = errors.New("quit")

// console drives the controller from line commands.
type console struct {
	ctrl *controller.Controller
	out  io.Writer
	mu   sync.Mutex
	wg   sync.WaitGroup
}

func newConsole(ctrl *controller.Controller, out io.Writer) *console {
	return &console{ctrl: ctrl, out: out}
}

func (c *console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format+"\n", args...)
}

// run reads commands until EOF, "quit" or ctx ends. quit is called on
// "quit" only.
func (c *console) run(ctx context.Context, r io.Reader, quit func()) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if ctx.Err() != nil {
			return
		}
		err := c.execute(ctx, sc.Text())
		if errors.Is(err, errQuit) {
			quit()
			return
		}
		if err != nil {
			c.printf("error: %v", err)
		}
	}
}

// execute runs one command line.
func (c *console) execute(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help", "?":
		c.printf("%s", consoleHelp)
	case "quit", "exit":
		return errQuit
	case "status":
		st, err := c.ctrl.Snapshot(ctx)
		if err != nil {
			return err
		}
		c.printf("%s", formatStatus(st))
	case "press":
		if len(args) != 1 {
			return fmt.Errorf("press needs a button")
		}
		b, ok := device.ParseButton(args[0])
		if !ok {
			return fmt.Errorf("unknown button %q", args[0])
		}
		return c.ctrl.Press(ctx, b)
	case "color":
		if len(args) != 1 {
			return fmt.Errorf("color needs an index")
		}
		idx, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid color index %q", args[0])
		}
		return c.ctrl.SelectColor(ctx, idx)
	case "move":
		if len(args) != 2 {
			return fmt.Errorf("move needs x and y")
		}
		x, errX := strconv.ParseFloat(args[0], 64)
		y, errY := strconv.ParseFloat(args[1], 64)
		if errX != nil || errY != nil {
			return fmt.Errorf("invalid position %q %q", args[0], args[1])
		}
		return c.ctrl.MoveCursor(ctx, x, y)
	case "mode":
		mode, err := c.ctrl.ToggleJoystickMode(ctx)
		if err != nil {
			return err
		}
		c.printf("joystick mode: %s", mode)
	case "record":
		return c.ctrl.StartRecording(ctx)
	case "stoprec":
		if err := c.ctrl.StopRecording(ctx); err != nil {
			return err
		}
		if err := c.ctrl.FlushRecording(ctx); err != nil {
			return err
		}
		c.printf("recorded session %d", c.ctrl.LastSessionID())
	case "sessions":
		sessions, err := c.ctrl.ListSessions(ctx)
		if err != nil {
			return err
		}
		c.mu.Lock()
		writeSessions(c.out, sessions)
		c.mu.Unlock()
	case "play":
		if len(args) != 1 {
			return fmt.Errorf("play needs a session id")
		}
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		c.play(ctx, id)
	case "pause":
		if !c.ctrl.PausePlayback() {
			return fmt.Errorf("nothing to pause")
		}
	case "resume":
		if !c.ctrl.ResumePlayback() {
			return fmt.Errorf("nothing to resume")
		}
	case "stop":
		if !c.ctrl.StopPlayback() {
			return fmt.Errorf("nothing playing")
		}
	case "round":
		var d time.Duration
		if len(args) == 1 {
			secs, err := strconv.Atoi(args[0])
			if err != nil || secs <= 0 {
				return fmt.Errorf("invalid round length %q", args[0])
			}
			d = time.Duration(secs) * time.Second
		}
		return c.ctrl.StartTimedGame(ctx, d)
	case "endround":
		res, err := c.ctrl.StopTimedGame(ctx)
		if err != nil {
			return err
		}
		c.printf("round: %d/%d regions, %.0f%%, %s", res.FilledRegions, res.TotalRegions,
			res.CompletionPercent(), res.Elapsed.Round(time.Second))
	case "save":
		if len(args) != 1 {
			return fmt.Errorf("save needs a file name")
		}
		return c.save(ctx, args[0])
	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
	return nil
}

// play starts a replay in the background; its outcome is printed.
func (c *console) play(ctx context.Context, id uint) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		err := c.ctrl.Play(ctx, id)
		switch {
		case err == nil:
			c.printf("session %d finished", id)
		case errors.Is(err, replay.ErrStopped):
			c.printf("session %d stopped", id)
		default:
			c.printf("session %d: %v", id, err)
		}
	}()
}

func (c *console) save(ctx context.Context, path string) error {
	img, err := c.ctrl.Render(ctx)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

func formatStatus(st controller.Status) string {
	var b strings.Builder
	fmt.Fprintf(&b, "link: %s %s\n", st.Link, st.Port)
	fmt.Fprintf(&b, "drawing: %s (%d filled, complete=%t)\n", st.Drawing, len(st.Fills), st.Complete)
	fmt.Fprintf(&b, "cursor: %.0f,%.0f color: %d mode: %s\n", st.Cursor.X, st.Cursor.Y, st.ColorIndex, st.Mode)
	switch {
	case st.Recording:
		fmt.Fprintf(&b, "recording: %s\n", st.Elapsed.Round(time.Second))
	case st.Replaying:
		fmt.Fprintf(&b, "replaying %d: %.0f%% paused=%t\n", st.PlayingID, st.Progress.Percent, st.Paused)
	}
	if st.RoundActive {
		fmt.Fprintf(&b, "round: %s left\n", st.RoundRemaining.Round(time.Second))
	}
	fmt.Fprintf(&b, "message: %s", st.Message)
	return b.String()
}
