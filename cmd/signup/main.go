// Command signup walks through the early-access form against a running API.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"

	"github.com/early-access-api/internal/domain"
	"github.com/early-access-api/internal/formflow"
)

func main() {
	_ = godotenv.Load()

	defaultAPI := os.Getenv("EARLY_ACCESS_API_URL")
	if defaultAPI == "" {
		defaultAPI = "http://localhost:3000"
	}
	apiURL := flag.String("api", defaultAPI, "base URL of the waitlist API")
	name := flag.StringP("name", "n", "", "your full name")
	email := flag.StringP("email", "e", "", "your business email")
	location := flag.StringP("location", "l", "", "city, state")
	category := flag.StringP("category", "c", "", "furniture, electronics, vehicles or others")
	debounce := flag.Duration("debounce", formflow.DefaultDebounce, "quiet period before the domain check")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *apiURL, *debounce, formflow.Info{
		Name: *name, Email: *email, Location: *location, Category: *category,
	}); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, apiURL string, debounce time.Duration, info formflow.Info) error {
	in := bufio.NewReader(os.Stdin)
	info = prompt(in, info)
	if fields := formflow.Validate(info); fields != nil {
		for f, tag := range fields {
			fmt.Fprintf(os.Stderr, "  %s: %s\n", f, tag)
		}
		return formflow.ErrInvalidFields
	}

	flow := formflow.New(formflow.NewClient(apiURL, nil), debounce)
	defer flow.Close()

	flow.EmailChanged(info.Email)
	status, err := awaitDomain(ctx, flow)
	if err != nil {
		return err
	}
	if status != domain.DomainValid {
		return formflow.ErrDomainNotValid
	}

	if err := flow.RequestOTP(ctx, info); err != nil {
		return err
	}
	fmt.Printf("A 6-digit code was sent to %s.\n", info.Email)

	for {
		fmt.Print("Code: ")
		code, readErr := in.ReadString('\n')
		res, err := flow.Verify(ctx, strings.TrimSpace(code))
		if err == nil {
			fmt.Printf("\nYou're in!\n  Invite code: %s\n  Community:   %s\n", res.InviteCode, res.CommunityLink)
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if readErr != nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "  ", err)
	}
}

func awaitDomain(ctx context.Context, flow *formflow.Flow) (domain.DomainStatus, error) {
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()
	for {
		if s := flow.DomainStatus(); s != formflow.DomainChecking {
			return s, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-tick.C:
		}
	}
}

func prompt(in *bufio.Reader, info formflow.Info) formflow.Info {
	if info.Name == "" {
		info.Name = readLine(in, "Name: ")
	}
	if info.Email == "" {
		info.Email = readLine(in, "Business email: ")
	}
	if info.Location == "" {
		info.Location = readLine(in, "Location (city, state): ")
	}
	if info.Category == "" {
		info.Category = readLine(in, "Category [furniture|electronics|vehicles|others]: ")
	}
	return info
}

func readLine(in *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}
