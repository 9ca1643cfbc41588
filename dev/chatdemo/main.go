package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bandseeking/bandseeking/chat"
	"github.com/bandseeking/bandseeking/wire"
)

// A line-oriented chat client for poking at a dev server. Run two of
// these with swapped -uid/-peer to talk to yourself.

var (
	serverURL = flag.String("server", "ws://127.0.0.1:8000/ws", "websocket endpoint")
	uid       = flag.String("uid", "", "own user id, required")
	peer      = flag.String("peer", "", "peer user id, required")
	draftPath = flag.String("drafts", "", "bbolt draft db path, optional")
)

func main() {
	flag.Parse()

	if *uid == "" || *peer == "" {
		fmt.Fprintln(os.Stderr, "both -uid and -peer are required")
		os.Exit(1)
	}

	var drafts *chat.DraftStore
	if *draftPath != "" {
		d, err := chat.OpenDraftStore(*draftPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open draft store: %v\n", err)
			os.Exit(1)
		}
		defer d.Close()
		drafts = d
	}

	// The dev auth client trusts the x-uid cookie, see auth.MockClient.
	header := http.Header{}
	header.Set("Cookie", "x-uid="+*uid)

	backend := chat.NewWSBackend(*serverURL, header)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := backend.Connect(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "connect %s: %v\n", *serverURL, err)
		os.Exit(1)
	}
	defer backend.Close()

	session := chat.NewSession(backend, *uid, *peer, drafts)
	session.Conn.SetOnline(true)
	if err := session.Open(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "open session: %v\n", err)
		os.Exit(1)
	}
	defer session.Close()

	if draft := session.Draft(); draft != "" {
		fmt.Printf("unsent draft: %q\n", draft)
	}

	go renderLoop(ctx, session)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigCh
		cancel()
		os.Exit(0)
	}()

	fmt.Printf("chatting with %s as %s, type and press enter\n", *peer, *uid)
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		body := strings.TrimSpace(scanner.Text())
		if body == "" {
			continue
		}
		if _, err := session.Submit(ctx, body); err != nil {
			fmt.Printf("!! send failed (%v), draft kept\n", err)
		}
	}
}

// renderLoop prints messages appended to the local view since the last
// tick, annotated with the status overlay.
func renderLoop(ctx context.Context, session *chat.Session) {
	ticker := time.NewTicker(300 * time.Millisecond)
	defer ticker.Stop()

	seen := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			msgs := session.Store.Messages()
			for ; seen < len(msgs); seen++ {
				printMessage(session, msgs[seen])
			}
		}
	}
}

func printMessage(session *chat.Session, m *wire.Message) {
	status := session.Tracker.Resolve(m)
	ts := m.CreatedTime().Format("15:04:05")
	fmt.Printf("[%s] %s (%s): %s\n", ts, m.SenderID, status, m.Body)
}
