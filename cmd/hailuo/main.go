// Package main provides the command line entry point for the Hailuo client
// gateway: one-shot account and order operations, the admin terminal
// console, and a local development stub of the remote API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/xinsaaa/hailuo/internal/browser"
	"github.com/xinsaaa/hailuo/internal/config"
	"github.com/xinsaaa/hailuo/internal/logging"
	"github.com/xinsaaa/hailuo/internal/stub"
	"github.com/xinsaaa/hailuo/internal/tui"
	"github.com/xinsaaa/hailuo/sdk/captcha"
	"github.com/xinsaaa/hailuo/sdk/credential"
	"github.com/xinsaaa/hailuo/sdk/gateway"
	"github.com/xinsaaa/hailuo/sdk/nav"
	"github.com/xinsaaa/hailuo/sdk/session"
)

func init() {
	logging.SetupBaseLogger()
}

func main() {
	if err := godotenv.Load(); err == nil {
		log.Debug("loaded environment from .env file")
	}

	var (
		configPath = flag.String("config", "config.yaml", "path to the configuration file")
		endpoint   = flag.String("endpoint", "", "explicit API endpoint, overrides the configuration")
		stubPort   = flag.Int("stub", 0, "run the local development stub on this port instead of a client action")
		console    = flag.Bool("console", false, "open the admin terminal console")
		register   = flag.Bool("register", false, "register a new account")
		login      = flag.Bool("login", false, "log in and store the session token")
		logout     = flag.Bool("logout", false, "log out and clear the stored session token")
		me         = flag.Bool("me", false, "show the current user profile")
		orders     = flag.Bool("orders", false, "list the account's orders")
		username   = flag.String("username", "", "account username")
		password   = flag.String("password", "", "account password")
		prompt     = flag.String("order", "", "create a generation order from this prompt")
		model      = flag.String("model", "", "model name for -order")
		recharge   = flag.Float64("recharge", 0, "create a payment order over this amount and open the payment page")
	)
	flag.Parse()

	cfg, err := config.LoadConfigOptional(*configPath, true)
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if err = logging.ConfigureLogOutput(cfg); err != nil {
		log.Fatalf("configure logging failed: %v", err)
	}
	if *endpoint != "" {
		cfg.Endpoint = *endpoint
	}

	if *stubPort > 0 {
		if err = stub.New().Run(stub.Addr(*stubPort)); err != nil {
			log.Fatalf("stub server failed: %v", err)
		}
		return
	}

	creds, err := credential.NewFileStore(cfg.CredentialFile())
	if err != nil {
		log.Fatalf("open credential store failed: %v", err)
	}
	sessions := session.NewStore(creds)
	guard := nav.NewGuard(nav.DefaultRoutes(), creds)
	navigator := nav.NewGuarded(nav.NewHistory("/"), guard)

	client, err := gateway.New(gateway.Options{
		Endpoint:          cfg.Endpoint,
		Origin:            cfg.Origin,
		ProxyURL:          cfg.ProxyURL,
		Credentials:       creds,
		Navigator:         navigator,
		DeviceFingerprint: loadFingerprint(cfg.FingerprintFile()),
	})
	if err != nil {
		log.Fatalf("build gateway client failed: %v", err)
	}
	persistFingerprint(cfg.FingerprintFile(), client.DeviceFingerprint())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch {
	case *console:
		err = tui.Run(client, creds)
	case *register:
		err = runRegister(ctx, client, sessions, *username, *password)
	case *login:
		err = runLogin(ctx, client, sessions, *username, *password)
	case *logout:
		err = sessions.Logout()
	case *me:
		err = runMe(ctx, client, sessions)
	case *prompt != "":
		err = runOrder(ctx, client, *prompt, *model)
	case *orders:
		err = runOrders(ctx, client)
	case *recharge > 0:
		err = runRecharge(ctx, client, *recharge)
	default:
		flag.Usage()
		return
	}
	if err != nil {
		log.Fatalf("%v", err)
	}
}

func runRegister(ctx context.Context, client *gateway.Client, sessions *session.Store, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("register: -username and -password are required")
	}
	challenge, err := client.Captcha(ctx)
	if err != nil {
		return fmt.Errorf("fetch captcha failed: %w", err)
	}
	position, ok := challenge.HintPosition()
	if !ok {
		return fmt.Errorf("register: captcha carries no hint; solve it in the web client")
	}
	token, err := client.Register(ctx, username, password, &captcha.Solution{Challenge: challenge, Position: position})
	if err != nil {
		return err
	}
	return finishLogin(ctx, client, sessions, username, token.AccessToken)
}

func runLogin(ctx context.Context, client *gateway.Client, sessions *session.Store, username, password string) error {
	if username == "" || password == "" {
		return fmt.Errorf("login: -username and -password are required")
	}
	// Try the challenge-less path first; the server may demand a challenge
	// after repeated failures.
	token, err := client.Login(ctx, username, password, nil)
	if err != nil {
		status, statusErr := client.SecurityStatus(ctx)
		if statusErr == nil && status.NeedCaptcha {
			return fmt.Errorf("login requires a captcha for this address; complete it in the web client (%w)", err)
		}
		return err
	}
	return finishLogin(ctx, client, sessions, username, token.AccessToken)
}

func finishLogin(ctx context.Context, client *gateway.Client, sessions *session.Store, username, token string) error {
	if err := sessions.Login(session.User{Username: username}, token); err != nil {
		return err
	}
	if user, err := client.CurrentUser(ctx); err == nil {
		sessions.SetUser(*user)
		log.Infof("logged in as %s (balance %.2f)", user.Username, user.Balance)
	} else {
		log.Infof("logged in as %s", username)
	}
	return nil
}

func runMe(ctx context.Context, client *gateway.Client, sessions *session.Store) error {
	user, err := client.CurrentUser(ctx)
	if err != nil {
		return err
	}
	sessions.SetUser(*user)
	fmt.Printf("id:       %d\nusername: %s\nbalance:  %.2f\n", user.ID, user.Username, user.Balance)
	return nil
}

func runOrder(ctx context.Context, client *gateway.Client, prompt, model string) error {
	order, err := client.CreateOrder(ctx, gateway.OrderRequest{Prompt: prompt, ModelName: model})
	if err != nil {
		return err
	}
	log.Infof("order %d created (cost %.2f)", order.ID, order.Cost)
	return nil
}

func runOrders(ctx context.Context, client *gateway.Client) error {
	orders, err := client.Orders(ctx)
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		fmt.Println("no orders")
		return nil
	}
	for _, order := range orders {
		video := order.VideoURL
		if video == "" {
			video = "-"
		}
		fmt.Printf("%6d  %-10s  %-40s  %s\n", order.ID, order.Status, truncate(order.Prompt, 40), video)
	}
	return nil
}

func runRecharge(ctx context.Context, client *gateway.Client, amount float64) error {
	created, err := client.CreatePayment(ctx, amount)
	if err != nil {
		return err
	}
	log.Infof("payment order %s created (amount %.2f, bonus %.2f)", created.OutTradeNo, created.Amount, created.Bonus)
	if err = browser.OpenURL(created.PayURL); err != nil {
		log.Warnf("open payment page failed: %v", err)
		fmt.Printf("complete the payment at: %s\n", created.PayURL)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimSpace(s[:n-3]) + "..."
}

// loadFingerprint reads the persisted device fingerprint; "" lets the
// gateway generate a fresh one.
func loadFingerprint(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

func persistFingerprint(path, fingerprint string) {
	if loadFingerprint(path) == fingerprint {
		return
	}
	if err := os.WriteFile(path, []byte(fingerprint+"\n"), 0o600); err != nil {
		log.Warnf("persist device fingerprint failed: %v", err)
	}
}
