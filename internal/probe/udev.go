package probe

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/pilebones/go-udev/netlink"

	"discpipe/internal/disc"
)

// UdevProbe listens for udev netlink events and reports disc insertions for
// a fixed set of configured drives without polling.
type UdevProbe struct {
	drives map[string]bool

	mu      sync.Mutex
	conn    *netlink.UEventConn
	quit    chan struct{}
	running bool
}

// NewUdevProbe constructs a UdevProbe restricted to the given drive device
// paths.
func NewUdevProbe(drives []string) *UdevProbe {
	set := make(map[string]bool, len(drives))
	for _, d := range drives {
		d = strings.TrimSpace(d)
		if d != "" {
			set[d] = true
		}
	}
	return &UdevProbe{drives: set}
}

// Start connects to the netlink socket and begins listening for disc
// insertion events. It is non-fatal if the socket cannot be opened; callers
// should fall back to a PollProbe in that case.
func (p *UdevProbe) Start(ctx context.Context, onDetect DetectFunc) error {
	if p == nil {
		return errors.New("udev probe unavailable")
	}
	if len(p.drives) == 0 {
		return errors.New("no drives configured for udev detection")
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return nil
	}

	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return err
	}

	p.conn = conn
	p.quit = make(chan struct{})
	p.running = true

	quit := p.quit
	go p.monitorLoop(ctx, quit, onDetect)
	return nil
}

// Stop disconnects from the netlink socket and halts event processing.
func (p *UdevProbe) Stop() {
	if p == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	if p.quit != nil {
		close(p.quit)
		p.quit = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	p.running = false
}

func (p *UdevProbe) monitorLoop(ctx context.Context, quit <-chan struct{}, onDetect DetectFunc) {
	queue := make(chan netlink.UEvent)
	errs := make(chan error)

	p.mu.Lock()
	conn := p.conn
	p.mu.Unlock()
	if conn == nil {
		return
	}

	action := "change|add"
	rule := netlink.RuleDefinition{
		Action: &action,
		Env: map[string]string{
			"SUBSYSTEM":      "block",
			"ID_CDROM":       "1",
			"ID_CDROM_MEDIA": "1",
		},
	}
	rules := &netlink.RuleDefinitions{}
	rules.AddRule(rule)

	monitorQuit := conn.Monitor(queue, errs, rules)

	for {
		select {
		case <-ctx.Done():
			close(monitorQuit)
			return
		case <-quit:
			close(monitorQuit)
			return
		case uevent := <-queue:
			p.handleEvent(ctx, uevent, onDetect)
		case <-errs:
			// transient netlink errors are not fatal to the listener
		}
	}
}

func (p *UdevProbe) handleEvent(ctx context.Context, uevent netlink.UEvent, onDetect DetectFunc) {
	devname := uevent.Env["DEVNAME"]
	if devname == "" {
		devpath := uevent.Env["DEVPATH"]
		if devpath != "" {
			parts := strings.Split(devpath, "/")
			if len(parts) > 0 {
				devname = "/dev/" + parts[len(parts)-1]
			}
		}
	}
	if devname == "" || !p.drives[devname] {
		return
	}

	if onDetect == nil {
		return
	}
	label, _ := disc.ReadLabel(ctx, devname, 5*time.Second)
	onDetect(ctx, Result{Device: devname, Label: fallbackLabel(label), Type: "Unknown"})
}
