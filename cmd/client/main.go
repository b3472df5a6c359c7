package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stock-data-service/src/client"
	"stock-data-service/src/config"
	"stock-data-service/src/logger"
	"stock-data-service/src/models"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	address  string
	clientID string
	secret   string
	logLevel string
	gap      time.Duration
	wsURL    string
)

// rootCmd is the demo client of the stock data service.
var rootCmd = &cobra.Command{
	Use:          "stock-client",
	Short:        "Demo client calling every stock data RPC through the re-authenticating wrapper",
	SilenceUsage: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&address, "addr", fmt.Sprintf("127.0.0.1:%d", config.DefaultGRPCPort), "gRPC server address")
	flags.StringVar(&clientID, "client-id", "clientId1", "client identifier")
	flags.StringVar(&secret, "secret", "secret1", "client secret")
	flags.StringVar(&logLevel, "log-level", "warning", "client log level")

	companyStreamCmd.Flags().DurationVar(&gap, "gap", 1500*time.Millisecond, "delay between two requested stocks")
	wsStreamCmd.Flags().DurationVar(&gap, "gap", 1500*time.Millisecond, "delay between two requested stocks")
	wsStreamCmd.Flags().StringVar(&wsURL, "url", fmt.Sprintf("ws://127.0.0.1:%d/ws/prices", config.DefaultPort), "websocket gateway URL")

	rootCmd.AddCommand(listingsCmd, priceCmd, streamCmd, pricesCmd, companyStreamCmd, wsStreamCmd, healthCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// withClient dials the server, runs fn and reports a cancelled call as a clean stop.
func withClient(fn func(c *client.StockClient) error) error {
	cfg := config.Default()
	cfg.Logger.Level = logLevel
	cfg.Logger.Format = "console"
	clientLogger := logger.NewLogger(cfg, "StockClient")

	c, err := client.Dial(address, clientID, secret, clientLogger)
	if err != nil {
		return err
	}
	defer c.Close()

	err = fn(c)
	if status.Code(err) == codes.Canceled || errors.Is(err, context.Canceled) {
		fmt.Println("Stream cancelled.")
		return nil
	}
	return err
}

func printSample(sample *models.StockPrice) {
	name := "<unknown>"
	if sample.Stock != nil {
		name = fmt.Sprintf("%s (%s)", sample.Stock.StockId, sample.Stock.StockName)
	}
	fmt.Printf("%-24s %4d  %s\n", name, sample.Price, sample.Time().Local().Format(time.RFC3339))
}

var listingsCmd = &cobra.Command{
	Use:   "listings",
	Short: "List the stock catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *client.StockClient) error {
			stocks, err := c.Listings(cmd.Context())
			if err != nil {
				return err
			}
			for _, s := range stocks {
				fmt.Printf("%-6s %s\n", s.StockId, s.StockName)
			}
			return nil
		})
	},
}

var priceCmd = &cobra.Command{
	Use:   "price <stock-id>",
	Short: "Get one price sample",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *client.StockClient) error {
			sample, err := c.Price(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printSample(sample)
			return nil
		})
	},
}

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream samples of the whole catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *client.StockClient) error {
			return c.PriceStream(cmd.Context(), printSample)
		})
	},
}

var pricesCmd = &cobra.Command{
	Use:   "prices <stock-id>...",
	Short: "Send several stocks and receive one batch of samples",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(c *client.StockClient) error {
			prices, err := c.BatchPrices(cmd.Context(), args)
			if err != nil {
				return err
			}
			for _, p := range prices {
				printSample(p)
			}
			return nil
		})
	},
}

var companyStreamCmd = &cobra.Command{
	Use:   "company-stream [stock-id]...",
	Short: "Request stocks one after another and receive their samples as they come",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"FB", "AAPL", "AMZN", "MSFT", "GOOG"}
		}
		return withClient(func(c *client.StockClient) error {
			return c.CompanyStream(cmd.Context(), args, gap, printSample)
		})
	},
}

var wsStreamCmd = &cobra.Command{
	Use:   "ws-stream [stock-id]...",
	Short: "Same as company-stream, through the websocket gateway",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			args = []string{"FB", "AAPL", "AMZN", "MSFT", "GOOG"}
		}
		return withClient(func(c *client.StockClient) error {
			return c.GatewayStream(cmd.Context(), wsURL, args, gap, printSample)
		})
	},
}

var healthCmd = &cobra.Command{
	Use:   "health [service]",
	Short: "Check the serving status, the whole server by default",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service := ""
		if len(args) == 1 {
			service = args[0]
		}
		return withClient(func(c *client.StockClient) error {
			s, err := c.Health(cmd.Context(), service)
			if err != nil {
				return err
			}
			fmt.Println(s.String())
			return nil
		})
	},
}
