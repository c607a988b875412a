package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/curvemkt/curved/internal/config"
)

var (
	nodeURL     string
	onlyOpen    bool
	tradesLimit int
)

// assetsCmd queries a running daemon over its JSON-RPC listener.
var assetsCmd = &cobra.Command{
	Use:   "assets",
	Short: "List and inspect assets on a running node",
	RunE: func(cmd *cobra.Command, args []string) error {
		return callAndPrint("assets", map[string]interface{}{"only_open": onlyOpen})
	},
}

var assetsInfoCmd = &cobra.Command{
	Use:   "info <asset>",
	Short: "Show one asset's listing and trading state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callAndPrint("asset_info", map[string]interface{}{"asset": args[0]})
	},
}

var assetsTradesCmd = &cobra.Command{
	Use:   "trades <asset>",
	Short: "Show an asset's recent trades, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callAndPrint("trades", map[string]interface{}{
			"asset": args[0],
			"limit": tradesLimit,
		})
	},
}

var assetsStatsCmd = &cobra.Command{
	Use:   "stats <asset>",
	Short: "Show an asset's aggregated trade statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callAndPrint("stats", map[string]interface{}{"asset": args[0]})
	},
}

func init() {
	rootCmd.AddCommand(assetsCmd)
	assetsCmd.AddCommand(assetsInfoCmd, assetsTradesCmd, assetsStatsCmd)

	assetsCmd.PersistentFlags().StringVar(&nodeURL, "node", "", "node RPC URL (default from config)")
	assetsCmd.Flags().BoolVar(&onlyOpen, "open", false, "only list assets still trading")
	assetsTradesCmd.Flags().IntVar(&tradesLimit, "limit", 0, "maximum trades to return (0 uses the server default)")
}

// resolveNodeURL prefers the --node flag, falling back to the RPC
// listener from the configuration the daemon would use.
func resolveNodeURL() (string, error) {
	if nodeURL != "" {
		return nodeURL, nil
	}
	cfg, err := config.Load(configFile)
	if err != nil {
		return "", err
	}
	return "http://" + cfg.RPCAddr(), nil
}

// rpcCall posts one JSON-RPC request and unwraps the response envelope.
func rpcCall(url, method string, params interface{}) (json.RawMessage, error) {
	req := map[string]interface{}{"method": method}
	if params != nil {
		req["params"] = []interface{}{params}
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	client := &http.Client{Timeout: 15 * time.Second}
	resp, err := client.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("node unreachable at %s: %w", url, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var envelope struct {
		Status       string          `json:"status"`
		Result       json.RawMessage `json:"result"`
		Error        string          `json:"error"`
		ErrorCode    int             `json:"error_code"`
		ErrorMessage string          `json:"error_message"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("malformed response: %w", err)
	}
	if envelope.Status != "success" {
		return nil, fmt.Errorf("%s (%d): %s", envelope.Error, envelope.ErrorCode, envelope.ErrorMessage)
	}
	return envelope.Result, nil
}

func callAndPrint(method string, params interface{}) error {
	url, err := resolveNodeURL()
	if err != nil {
		return err
	}
	result, err := rpcCall(url, method, params)
	if err != nil {
		return err
	}

	var pretty bytes.Buffer
	if err := json.Indent(&pretty, result, "", "  "); err != nil {
		fmt.Println(string(result))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}
