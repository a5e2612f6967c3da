package dashboard

import (
	"fmt"
	"html"
	"strings"
	"time"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// setStatus renders a banner message with a category class and arms a timer
// that clears it after the configured delay. A newer message supersedes a
// pending clear so the old timer never wipes the new text.
func (c *Client) setStatus(msg, kind string) {
	c.mu.Lock()
	if c.statusTimer != nil {
		c.statusTimer.Stop()
	}
	c.statusMsg = msg
	c.statusTimer = time.AfterFunc(c.clearDelay, func() {
		c.clearStatus(msg)
	})
	c.mu.Unlock()

	c.surface.Render(RegionStatus, fmt.Sprintf(`<span class="status-%s">%s</span>`, kind, escape(msg)))
}

// clearStatus resets the banner, but only if the given message is still the
// one on display.
func (c *Client) clearStatus(msg string) {
	c.mu.Lock()
	if c.statusMsg != msg {
		c.mu.Unlock()
		return
	}
	c.statusMsg = ""
	c.statusTimer = nil
	c.mu.Unlock()

	c.surface.Render(RegionStatus, "")
}

// escape HTML-escapes a server-supplied or user-supplied value before it is
// placed into markup.
func escape(s string) string {
	return html.EscapeString(s)
}

// tableListHTML builds the sidebar's table list. Names come from the server
// and are escaped like any other value.
func tableListHTML(tables []string) string {
	var b strings.Builder
	for _, name := range tables {
		fmt.Fprintf(&b, `<li class="table-item" data-table="%s">%s</li>`, escape(name), escape(name))
	}
	return b.String()
}
