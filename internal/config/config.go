package config

import (
	"fmt"
	"strings"

	"github.com/openbuilders/jetton-airdrop/internal/env"
	"github.com/openbuilders/jetton-airdrop/internal/errors"
	"github.com/openbuilders/jetton-airdrop/internal/payload"
	"github.com/openbuilders/jetton-airdrop/internal/recipients"

	"github.com/joho/godotenv"
	"github.com/xssnick/tonutils-go/address"
	"github.com/xssnick/tonutils-go/tlb"
)

const (
	MainnetConfigURL = "https://ton.org/global.config.json"
	TestnetConfigURL = "https://ton.org/testnet-global.config.json"

	// APIKeyPlaceholder is replaced with the network's API key in the lite
	// client config URL.
	APIKeyPlaceholder = "{api_key}"
)

type WalletVersion string

const (
	// WalletHighloadV3 sends the whole batch in one external message.
	WalletHighloadV3 WalletVersion = "highload-v3"
	// WalletV4R2 is limited to 4 messages per external message, larger
	// batches go out as several consecutive submissions.
	WalletV4R2 WalletVersion = "v4r2"
)

type Config struct {
	LogLevel string

	IsMainnet         bool
	TestnetAPIKey     string
	MainnetAPIKey     string
	LightClientConfig string

	Mnemonic      string
	WalletVersion WalletVersion

	JettonMaster *address.Address
	// JettonWallet is optional, when nil it is resolved from JettonMaster.
	JettonWallet *address.Address

	RecipientsFile string
	// StartID is accepted for compatibility with existing .env files and
	// only logged.
	StartID int

	GasValue      tlb.Coins
	ForwardAmount tlb.Coins
	Comment       string
	CheckBalance  bool

	RedisURL       string
	PostgresURL    string
	RabbitURL      string
	PushgatewayURL string
}

// LoadDotEnv loads variables from the given files, missing files are
// ignored. Variables already present in the environment win.
func LoadDotEnv(files ...string) {
	for _, f := range files {
		_ = godotenv.Load(f)
	}
}

// Load reads the configuration from the environment. Required values are
// checked first so that nothing touches the network without them.
func Load() (*Config, error) {
	jettonMaster, err := env.MustGetString("JETTON_ADDRESS")
	if err != nil {
		return nil, err
	}

	mnemonic, err := env.MustGetString("MNEMONIC")
	if err != nil {
		return nil, err
	}

	c, err := LoadNetwork()
	if err != nil {
		return nil, err
	}

	c.Mnemonic = normalizeMnemonic(mnemonic)
	c.RecipientsFile = env.GetString("WINNERS_FILE", recipients.DefaultFile)
	c.StartID = env.GetInt("WINNERS_START_ID", 1)
	c.Comment = env.GetString("TRANSFER_COMMENT", payload.DefaultComment)
	c.CheckBalance = env.GetBool("CHECK_BALANCE", false)
	c.RedisURL = env.GetString("REDIS_URL", "")
	c.PostgresURL = env.GetString("POSTGRES_URL", "")
	c.RabbitURL = env.GetString("RABBIT_URL", "")
	c.PushgatewayURL = env.GetString("PUSHGATEWAY_URL", "")

	if len(strings.Fields(c.Mnemonic)) < 12 {
		return nil, errors.New(errors.InvalidConfiguration,
			"MNEMONIC must contain at least 12 words")
	}

	c.JettonMaster, err = payload.ParseAddress(jettonMaster)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidConfiguration,
			"invalid JETTON_ADDRESS", err)
	}

	if jettonWallet := env.GetString("JETTON_WALLET_ADDRESS", ""); jettonWallet != "" {
		c.JettonWallet, err = payload.ParseAddress(jettonWallet)
		if err != nil {
			return nil, errors.Wrap(errors.InvalidConfiguration,
				"invalid JETTON_WALLET_ADDRESS", err)
		}
	}

	c.GasValue, err = tlb.FromTON(env.GetString("JETTON_GAS_AMOUNT", payload.DefaultGasValue))
	if err != nil {
		return nil, errors.Wrap(errors.InvalidConfiguration,
			"invalid JETTON_GAS_AMOUNT", err)
	}

	c.ForwardAmount = tlb.FromNanoTONU(env.GetUint64("FORWARD_AMOUNT_NANO", 1))

	return c, nil
}

// LoadNetwork reads only the network and wallet version settings, which is
// all that is needed to derive a wallet address.
func LoadNetwork() (*Config, error) {
	c := &Config{
		LogLevel:      env.GetString("LOG_LEVEL", "INFO"),
		IsMainnet:     env.GetBool("IS_MAINNET", false),
		TestnetAPIKey: env.GetString("TON_TESTNET_API_KEY", ""),
		MainnetAPIKey: env.GetString("TON_MAINNET_API_KEY", ""),
		WalletVersion: WalletVersion(strings.ToLower(env.GetString("WALLET_VERSION", string(WalletHighloadV3)))),
	}

	defaultConfigURL := TestnetConfigURL
	if c.IsMainnet {
		defaultConfigURL = MainnetConfigURL
	}
	c.LightClientConfig = env.GetString("LIGHTCLIENT_CONFIG", defaultConfigURL)

	switch c.WalletVersion {
	case WalletV4R2, WalletHighloadV3:
	default:
		return nil, errors.New(errors.InvalidConfiguration,
			fmt.Sprintf("unsupported WALLET_VERSION %q", c.WalletVersion))
	}

	return c, nil
}

// Network is the human readable network name.
func (c *Config) Network() string {
	if c.IsMainnet {
		return "mainnet"
	}
	return "testnet"
}

// APIKey returns the key of the selected network.
func (c *Config) APIKey() string {
	if c.IsMainnet {
		return c.MainnetAPIKey
	}
	return c.TestnetAPIKey
}

// LightClientConfigURL returns the lite client config URL with the API key
// substituted, if the URL asks for one.
func (c *Config) LightClientConfigURL() string {
	return strings.ReplaceAll(c.LightClientConfig, APIKeyPlaceholder, c.APIKey())
}

func normalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(mnemonic), " ")
}
