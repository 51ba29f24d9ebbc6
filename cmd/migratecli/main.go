package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/woof-software/migrator-v2-sub003/adapter"
	"github.com/woof-software/migrator-v2-sub003/ledger"
)

const defaultEndpoint = "http://127.0.0.1:8545"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "adapters":
		err = cmdAdapters(os.Args[2:])
	case "flash-configs":
		err = cmdFlashConfigs(os.Args[2:])
	case "route":
		err = cmdRoute(os.Args[2:])
	case "conversion-paths":
		err = cmdConversionPaths(os.Args[2:])
	case "migrate":
		err = cmdMigrate(os.Args[2:])
	case "encode-position":
		err = cmdEncodePosition(os.Args[2:])
	case "pause":
		err = cmdAdmin(os.Args[2:], http.MethodPost, "/v1/admin/pause")
	case "unpause":
		err = cmdAdmin(os.Args[2:], http.MethodPost, "/v1/admin/unpause")
	case "remove-adapter":
		err = cmdRemove(os.Args[2:], "/v1/admin/adapters/")
	case "remove-flash-config":
		err = cmdRemove(os.Args[2:], "/v1/admin/flash-configs/")
	default:
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: migratecli <command> [flags]

commands:
  adapters             list registered adapters
  flash-configs        list flash loan configuration (optionally --comet)
  route                quote the best route (--in, --out, --amount)
  conversion-paths     show the encoded bridge conversion paths
  migrate              execute a migration (--user, --adapter, --comet, --data, --flash)
  encode-position      encode a position JSON file to hex (--file)
  pause / unpause      halt or resume migrations (--token)
  remove-adapter       deregister an adapter (--address, --token)
  remove-flash-config  unbind a market (--comet, --token)`)
}

func client() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}

func get(endpoint, path string) error {
	resp, err := client().Get(endpoint + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

func printResponse(resp *http.Response) error {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		fmt.Println("ok")
		return nil
	}
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, body, "", "  "); err != nil {
		fmt.Println(strings.TrimSpace(string(body)))
		return nil
	}
	fmt.Println(pretty.String())
	return nil
}

func cmdAdapters(args []string) error {
	fs := flag.NewFlagSet("adapters", flag.ExitOnError)
	endpoint := fs.String("endpoint", defaultEndpoint, "Service endpoint")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return get(*endpoint, "/v1/adapters")
}

func cmdFlashConfigs(args []string) error {
	fs := flag.NewFlagSet("flash-configs", flag.ExitOnError)
	endpoint := fs.String("endpoint", defaultEndpoint, "Service endpoint")
	comet := fs.String("comet", "", "Only this market")
	if err := fs.Parse(args); err != nil {
		return err
	}
	path := "/v1/flash-configs"
	if *comet != "" {
		path += "/" + *comet
	}
	return get(*endpoint, path)
}

func cmdConversionPaths(args []string) error {
	fs := flag.NewFlagSet("conversion-paths", flag.ExitOnError)
	endpoint := fs.String("endpoint", defaultEndpoint, "Service endpoint")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return get(*endpoint, "/v1/conversion-paths")
}

func cmdRoute(args []string) error {
	fs := flag.NewFlagSet("route", flag.ExitOnError)
	endpoint := fs.String("endpoint", defaultEndpoint, "Service endpoint")
	tokenIn := fs.String("in", "", "Input token address")
	tokenOut := fs.String("out", "", "Output token address")
	amount := fs.String("amount", "", "Input amount")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *tokenIn == "" || *tokenOut == "" || *amount == "" {
		return fmt.Errorf("--in, --out and --amount are required")
	}
	return get(*endpoint, fmt.Sprintf("/v1/routes/best?tokenIn=%s&tokenOut=%s&amountIn=%s", *tokenIn, *tokenOut, *amount))
}

func cmdMigrate(args []string) error {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	endpoint := fs.String("endpoint", defaultEndpoint, "Service endpoint")
	user := fs.String("user", "", "User address")
	adapterAddr := fs.String("adapter", "", "Adapter address")
	comet := fs.String("comet", "", "Destination market address")
	data := fs.String("data", "", "Hex migration data, or @file with hex content")
	flash := fs.String("flash", "", "Flash loan amount")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *user == "" || *adapterAddr == "" || *comet == "" || *data == "" || *flash == "" {
		return fmt.Errorf("--user, --adapter, --comet, --data and --flash are required")
	}

	payload := *data
	if strings.HasPrefix(payload, "@") {
		raw, err := os.ReadFile(payload[1:])
		if err != nil {
			return err
		}
		payload = strings.TrimSpace(string(raw))
	}

	body, err := json.Marshal(map[string]string{
		"user":          *user,
		"adapter":       *adapterAddr,
		"comet":         *comet,
		"migrationData": payload,
		"flashAmount":   *flash,
	})
	if err != nil {
		return err
	}
	resp, err := client().Post(*endpoint+"/v1/migrate", "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printResponse(resp)
}

// positionFile is the JSON shape encode-position reads.
type positionFile struct {
	Borrows     []positionLeg `json:"borrows"`
	Collaterals []positionLeg `json:"collaterals"`
}

type positionLeg struct {
	Token    string `json:"token"`
	MarketID string `json:"marketId"`
	Amount   string `json:"amount"`
	Path     string `json:"path"`
	Deadline uint64 `json:"deadline"`
	Limit    string `json:"limit"`
}

func cmdEncodePosition(args []string) error {
	fs := flag.NewFlagSet("encode-position", flag.ExitOnError)
	file := fs.String("file", "", "Position JSON file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *file == "" {
		return fmt.Errorf("--file is required")
	}
	raw, err := os.ReadFile(*file)
	if err != nil {
		return err
	}
	var spec positionFile
	if err := json.Unmarshal(raw, &spec); err != nil {
		return fmt.Errorf("parse %s: %w", *file, err)
	}

	position := &adapter.Position{}
	for i, leg := range spec.Borrows {
		borrow, err := parseLeg(leg)
		if err != nil {
			return fmt.Errorf("borrows[%d]: %w", i, err)
		}
		position.Borrows = append(position.Borrows, adapter.Borrow(borrow))
	}
	for i, leg := range spec.Collaterals {
		collateral, err := parseLeg(leg)
		if err != nil {
			return fmt.Errorf("collaterals[%d]: %w", i, err)
		}
		position.Collaterals = append(position.Collaterals, adapter.Collateral(collateral))
	}

	encoded, err := adapter.EncodePosition(position)
	if err != nil {
		return err
	}
	fmt.Println("0x" + hex.EncodeToString(encoded))
	return nil
}

// leg is the common shape of a borrow and a collateral item.
type leg struct {
	Ref    ledger.MarketRef
	Amount adapter.Amount
	Swap   adapter.SwapSpec
}

func parseLeg(in positionLeg) (leg, error) {
	var out leg
	switch {
	case in.Token != "" && in.MarketID != "":
		return out, fmt.Errorf("token and marketId are mutually exclusive")
	case in.Token != "":
		if !common.IsHexAddress(in.Token) {
			return out, fmt.Errorf("%q is not a hex address", in.Token)
		}
		out.Ref = ledger.TokenRef(common.HexToAddress(in.Token))
	case in.MarketID != "":
		out.Ref = ledger.MarketIDRef(common.HexToHash(in.MarketID))
	default:
		return out, fmt.Errorf("token or marketId is required")
	}

	switch strings.ToLower(strings.TrimSpace(in.Amount)) {
	case "all", "max", "":
		out.Amount = adapter.FullAmount()
	default:
		value, ok := new(big.Int).SetString(in.Amount, 10)
		if !ok || value.Sign() <= 0 {
			return out, fmt.Errorf("%q is not a positive amount", in.Amount)
		}
		out.Amount = adapter.ExactAmount(value)
	}

	if in.Path != "" {
		path, err := hex.DecodeString(strings.TrimPrefix(in.Path, "0x"))
		if err != nil {
			return out, fmt.Errorf("path: %w", err)
		}
		out.Swap.Path = path
		out.Swap.Deadline = in.Deadline
		if in.Limit != "" {
			limit, ok := new(big.Int).SetString(in.Limit, 10)
			if !ok || limit.Sign() <= 0 {
				return out, fmt.Errorf("%q is not a positive limit", in.Limit)
			}
			out.Swap.Limit = limit
		}
	}
	return out, nil
}

func cmdAdmin(args []string, method, path string) error {
	fs := flag.NewFlagSet("admin", flag.ExitOnError)
	endpoint := fs.String("endpoint", defaultEndpoint, "Service endpoint")
	tokenFlag := fs.String("token", "", "Admin token")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return adminRequest(*endpoint, method, path, *tokenFlag)
}

func cmdRemove(args []string, prefix string) error {
	fs := flag.NewFlagSet("remove", flag.ExitOnError)
	endpoint := fs.String("endpoint", defaultEndpoint, "Service endpoint")
	tokenFlag := fs.String("token", "", "Admin token")
	address := fs.String("address", "", "Target address")
	comet := fs.String("comet", "", "Target market address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	target := *address
	if target == "" {
		target = *comet
	}
	if target == "" {
		return fmt.Errorf("--address or --comet is required")
	}
	return adminRequest(*endpoint, http.MethodDelete, prefix+target, *tokenFlag)
}

func adminRequest(endpoint, method, path, token string) error {
	if token == "" {
		token = os.Getenv("MIGRATOR_ADMIN_TOKEN")
	}
	req, err := http.NewRequest(method, endpoint+path, nil)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := client().Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return printResponse(resp)
}
