package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/yatra-gate/backend/internal/models"
	"github.com/yatra-gate/backend/internal/overrides"
	"github.com/yatra-gate/backend/internal/scan"
	"github.com/yatra-gate/backend/internal/tickets"
)

// Console modes.
const (
	ModeQR     = "qr"
	ModeManual = "manual"
	ModeSearch = "search"
	ModeAdmin  = "admin"
)

var modes = []string{ModeQR, ModeManual, ModeSearch, ModeAdmin}

// Backend is the server API as the console uses it.
type Backend interface {
	ScanQR(ctx context.Context, token string) (scan.Response, error)
	ScanCode(ctx context.Context, code string) (scan.Response, error)
	Search(ctx context.Context, q string) ([]tickets.SearchResult, error)
	ForceAllow(ctx context.Context, ticketID string, req overrides.ActionRequest) (overrides.Result, error)
	Reset(ctx context.Context, ticketID string, req overrides.ActionRequest) (overrides.Result, error)
	Logs(ctx context.Context, ticketID string) ([]models.OverrideLogEntry, error)
}

// Console is a line-oriented gate shell for keyboard-wedge scanners: each
// scan arrives as one line of input.
type Console struct {
	api       Backend
	out       io.Writer
	mu        sync.Mutex
	mode      string
	gate      string
	adminName string
	hold      time.Duration
	busy      atomic.Bool
	results   []tickets.SearchResult

	allowed  *color.Color
	rejected *color.Color
	warn     *color.Color
}

// NewConsole creates a console in QR mode.
func NewConsole(api Backend, out io.Writer, gate, adminName string) *Console {
	return &Console{
		api:       api,
		out:       out,
		mode:      ModeQR,
		gate:      gate,
		adminName: adminName,
		hold:      scan.AutoDismiss,
		allowed:   color.New(color.FgBlack, color.BgGreen, color.Bold),
		rejected:  color.New(color.FgWhite, color.BgRed, color.Bold),
		warn:      color.New(color.FgYellow, color.Bold),
	}
}

func (c *Console) printf(format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, format, args...)
}

func (c *Console) prompt() {
	c.printf("[%s|%s] > ", c.gate, strings.ToUpper(c.mode))
}

// Run reads lines from in until EOF or ctx is done.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string, 16)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			if c.busy.Load() {
				c.printf("\n%s\n", c.warn.Sprint("busy: input ignored"))
				continue
			}
			lines <- sc.Text()
		}
	}()

	c.printf("Modes: %s. Switch with :mode <name>, :help for commands.\n", strings.Join(modes, ", "))
	c.prompt()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, held := c.handle(ctx, strings.TrimSpace(line))
			if quit {
				return nil
			}
			if held && !c.waitDismiss(ctx, lines) {
				return nil
			}
			c.prompt()
		}
	}
}

// waitDismiss keeps a verdict on screen until Enter or the hold time
// elapses. The dismissing line is discarded. It reports false on EOF.
func (c *Console) waitDismiss(ctx context.Context, lines <-chan string) bool {
	c.printf("%s\n", color.New(color.Faint).Sprintf("[Enter to continue, auto in %ds]", int(c.hold.Seconds())))
	timer := time.NewTimer(c.hold)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case _, ok := <-lines:
		return ok
	case <-timer.C:
		return true
	}
}

// handle processes one line. held reports that a verdict is on screen.
func (c *Console) handle(ctx context.Context, line string) (quit, held bool) {
	if line == "" {
		return false, false
	}
	if strings.HasPrefix(line, ":") {
		return c.command(line), false
	}
	switch c.mode {
	case ModeQR:
		return false, c.verify(ctx, func(ctx context.Context) (scan.Response, error) { return c.api.ScanQR(ctx, line) })
	case ModeManual:
		if !scan.ValidCode(line) {
			c.printf("%s\n", c.warn.Sprint("Enter a 6-digit code"))
			return false, false
		}
		return false, c.verify(ctx, func(ctx context.Context) (scan.Response, error) { return c.api.ScanCode(ctx, line) })
	case ModeSearch:
		return false, c.search(ctx, line)
	case ModeAdmin:
		c.admin(ctx, line)
	}
	return false, false
}

func (c *Console) command(line string) bool {
	fields := strings.Fields(strings.TrimPrefix(line, ":"))
	if len(fields) == 0 {
		return false
	}
	name := fields[0]
	if name == "mode" {
		if len(fields) < 2 {
			c.printf("mode: %s\n", c.mode)
			return false
		}
		name = fields[1]
	}
	switch name {
	case ModeQR, ModeManual, ModeSearch, ModeAdmin:
		c.mode = name
		c.printf("switched to %s\n", strings.ToUpper(name))
	case "quit", "q":
		return true
	case "help":
		c.printf("%s", helpText)
	default:
		c.printf("unknown command %q, try :help\n", line)
	}
	return false
}

const helpText = `:mode qr|manual|search|admin   switch mode (or :qr, :manual, ...)
:quit                           exit
qr       each line is a scanned QR token
manual   each line is a 6-digit code
search   type 3+ characters to search, #n admits result n by its code
admin    allow <ticket|#n> <1|2|all|-> <reason>
         reset <ticket|#n> <1|2|all|-> <reason>
         logs <ticket|#n>
         name <your name>
`

// verify runs one scan request under the busy flag and prints the verdict.
func (c *Console) verify(ctx context.Context, call func(context.Context) (scan.Response, error)) bool {
	if !c.busy.CompareAndSwap(false, true) {
		return false
	}
	res, err := call(ctx)
	c.busy.Store(false)
	if errors.Is(err, errBusy) {
		c.printf("%s\n", c.warn.Sprint("Previous scan still in progress, try again"))
		return false
	}
	if err != nil {
		c.printf("%s\n", c.rejected.Sprint(" SYSTEM ERROR "))
		c.printf("%v\n", err)
		return true
	}
	c.render(res)
	return true
}

func (c *Console) render(res scan.Response) {
	banner := c.rejected
	if res.Result.Allowed {
		banner = c.allowed
	}
	c.printf("\n%s\n", banner.Sprintf("  %s  ", res.Display.Headline))
	if t := res.Result.Ticket; t != nil && !t.Empty() {
		c.printf("%s", t.Name)
		if res.Display.CategoryName != "" {
			c.printf(" | %s", res.Display.CategoryName)
		}
		if t.Code != "" {
			c.printf(" | #%s", t.Code)
		}
		c.printf("\n")
		if t.College != "" {
			c.printf("%s\n", t.College)
		}
	}
	if res.Display.LastUsedAt != nil {
		c.printf("Last used: %s\n", res.Display.LastUsedAt.Local().Format("Jan 2 15:04"))
	}
	if res.Display.Hint != "" {
		c.printf("%s\n", res.Display.Hint)
	}
}

func (c *Console) search(ctx context.Context, line string) bool {
	if strings.HasPrefix(line, "#") {
		t, ok := c.pick(line)
		if !ok || t.Ticket == nil {
			return false
		}
		if t.Revoked() {
			c.printf("%s\n", c.warn.Sprint("Ticket revoked, cannot admit"))
			return false
		}
		return c.verify(ctx, func(ctx context.Context) (scan.Response, error) { return c.api.ScanCode(ctx, t.Code) })
	}
	if utf8.RuneCountInString(line) < tickets.MinQueryLength {
		c.printf("Type at least %d characters\n", tickets.MinQueryLength)
		return false
	}
	list, err := c.api.Search(ctx, line)
	if err != nil {
		c.printf("search failed: %v\n", err)
		return false
	}
	c.results = list
	if len(list) == 0 {
		c.printf("No tickets found\n")
		return false
	}
	for i, t := range list {
		status := c.allowed.Sprint(" ACTIVE ")
		if t.Revoked() {
			status = c.rejected.Sprint(" REVOKED ")
		}
		c.printf("#%d %s %s | %s | %s", i+1, status, t.Name, t.Email, t.Code)
		if t.CategoryName != "" {
			c.printf(" | %s", t.CategoryName)
		}
		c.printf("\n")
	}
	return false
}

// pick resolves "#n" against the last search results.
func (c *Console) pick(ref string) (tickets.SearchResult, bool) {
	n, err := strconv.Atoi(strings.TrimPrefix(ref, "#"))
	if err != nil || n < 1 || n > len(c.results) {
		c.printf("no search result %s\n", ref)
		return tickets.SearchResult{}, false
	}
	return c.results[n-1], true
}

func (c *Console) ticketRef(ref string) (string, bool) {
	if strings.HasPrefix(ref, "#") {
		t, ok := c.pick(ref)
		if !ok || t.Ticket == nil {
			return "", false
		}
		return t.ID.String(), true
	}
	return ref, true
}

// checkOverride applies the audit field minimums before any request is sent.
func checkOverride(req overrides.ActionRequest) error {
	if utf8.RuneCountInString(strings.TrimSpace(req.Reason)) < overrides.MinReasonLength {
		return overrides.ErrReasonTooShort
	}
	if utf8.RuneCountInString(strings.TrimSpace(req.AdminName)) < overrides.MinAdminNameLength {
		return overrides.ErrAdminNameTooShort
	}
	return nil
}

// parseDay maps an operator day argument to the override selector. "-"
// leaves the action's default.
func parseDay(s string) (*int, error) {
	var d int
	switch strings.ToLower(s) {
	case "-":
		return nil, nil
	case "all", "0":
		d = overrides.DayAll
	case "1":
		d = overrides.Day1
	case "2":
		d = overrides.Day2
	default:
		return nil, fmt.Errorf("day must be 1, 2, all or -")
	}
	return &d, nil
}

func (c *Console) admin(ctx context.Context, line string) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "name":
		c.adminName = strings.TrimSpace(strings.TrimPrefix(line, "name"))
		c.printf("admin name set to %q\n", c.adminName)
	case "logs":
		if len(fields) != 2 {
			c.printf("usage: logs <ticket|#n>\n")
			return
		}
		id, ok := c.ticketRef(fields[1])
		if !ok {
			return
		}
		logs, err := c.api.Logs(ctx, id)
		if err != nil {
			c.printf("logs failed: %v\n", err)
			return
		}
		if len(logs) == 0 {
			c.printf("No override history\n")
		}
		for _, l := range logs {
			c.printf("%s  %-12s day %d  %-16s %s\n", l.CreatedAt.Local().Format("Jan 2 15:04"), l.Action, l.Day, l.AdminIdentifier, l.Reason)
		}
	case "allow", "reset":
		if len(fields) < 4 {
			c.printf("usage: %s <ticket|#n> <1|2|all|-> <reason>\n", fields[0])
			return
		}
		id, ok := c.ticketRef(fields[1])
		if !ok {
			return
		}
		day, err := parseDay(fields[2])
		if err != nil {
			c.printf("%v\n", err)
			return
		}
		req := overrides.ActionRequest{Day: day, Reason: strings.Join(fields[3:], " "), AdminName: c.adminName}
		if err := checkOverride(req); err != nil {
			c.printf("%s\n", c.rejected.Sprintf(" %v ", err))
			return
		}
		var res overrides.Result
		if fields[0] == "allow" {
			res, err = c.api.ForceAllow(ctx, id, req)
		} else {
			res, err = c.api.Reset(ctx, id, req)
		}
		if err != nil {
			c.printf("%s\n", c.rejected.Sprintf(" %v ", err))
			return
		}
		if res.Success {
			c.printf("%s %s\n", c.allowed.Sprint(" OK "), res.Message)
		} else {
			c.printf("%s %s\n", c.rejected.Sprint(" REFUSED "), res.Message)
		}
	default:
		c.printf("unknown admin command %q, try :help\n", fields[0])
	}
}
