// Command observe tails a roll-call server: it subscribes to the event socket
// and prints the resolved status board after every mutation, the way a wall
// display would.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/evacdesk/rollcall/internal/domain"
	"github.com/evacdesk/rollcall/internal/observer"
	"github.com/evacdesk/rollcall/pkg/logger"
)

func main() {
	server := flag.String("server", "http://localhost:3001", "roll-call server base URL")
	refresh := flag.Duration("refresh", 30*time.Second, "fallback refresh interval")
	flag.Parse()

	wsURL := "ws" + (*server)[len("http"):] + "/ws"
	statusURL := *server + "/api/staff-status?sort=priority"

	client := observer.New(observer.Config{
		URL:             wsURL,
		RefreshInterval: *refresh,
	},
		func(evt domain.Event) {
			logger.Info("event", "type", evt.Type)
		},
		func() { printBoard(statusURL) },
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client.Start(ctx)

	printBoard(statusURL)

	// When the reconnect cap is exhausted the client parks in Disconnected;
	// keep nudging it so an operator never has to restart the process.
	go func() {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if client.State() == observer.Disconnected {
					logger.Info("observer parked, restarting connect cycle")
					client.Restart()
				}
			}
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	client.Stop()
}

func printBoard(statusURL string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		logger.Error("bad status URL", "error", err)
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.Warn("status fetch failed", "error", err)
		return
	}
	defer resp.Body.Close()

	var rows []domain.StaffStatusRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		logger.Warn("malformed status payload", "error", err)
		return
	}

	fmt.Printf("--- %s (%d staff) ---\n", time.Now().Format("15:04:05"), len(rows))
	for _, r := range rows {
		fmt.Printf("%-12s %s %s (%s)\n", r.Status, r.FirstName, r.LastName, r.WorkArea)
	}
}
