package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/arkade-os/assetreg/internal/config"
	"github.com/arkade-os/assetreg/internal/core/application"
	"github.com/arkade-os/assetreg/internal/core/domain"
	"github.com/arkade-os/assetreg/internal/telemetry"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var (
	Version string

	cfg          *config.Config
	otelShutdown func(context.Context) error
)

func main() {
	app := cli.NewApp()
	app.Version = Version
	app.Name = "assetreg"
	app.Usage = "digital asset registry command line interface"
	app.Commands = append(
		app.Commands,
		&keygenCommand,
		&createCollectionCommand,
		&mintCommand,
		&updateCommand,
		&transferCommand,
		&freezeCommand,
		&thawCommand,
		&collectionCommand,
		&assetCommand,
		&assetsCommand,
	)
	app.Flags = config.Flags
	app.Before = func(ctx *cli.Context) error {
		c, err := config.LoadConfig(ctx)
		if err != nil {
			return fmt.Errorf("invalid config: %s", err)
		}
		if err := c.Validate(); err != nil {
			return fmt.Errorf("invalid config: %s", err)
		}
		cfg = c

		log.SetLevel(log.Level(cfg.LogLevel))
		log.Debugf("config: %s", cfg)

		if cfg.OtelCollectorEndpoint != "" {
			pushInterval := time.Duration(cfg.OtelPushInterval) * time.Second
			shutdown, err := telemetry.InitOtelSDK(
				ctx.Context, cfg.OtelCollectorEndpoint, pushInterval,
			)
			if err != nil {
				return err
			}
			otelShutdown = shutdown
		}
		return nil
	}
	app.After = func(ctx *cli.Context) error {
		if cfg != nil {
			cfg.Close()
		}
		if otelShutdown != nil {
			if err := otelShutdown(context.Background()); err != nil {
				log.WithError(err).Warn("failed to shutdown otel sdk")
			}
		}
		return nil
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Println(fmt.Errorf("error: %v", err))
		os.Exit(1)
	}
}

var (
	keygenCommand = cli.Command{
		Name:   "keygen",
		Usage:  "Generate a new key pair to sign transitions with",
		Action: keygen,
	}
	createCollectionCommand = cli.Command{
		Name:  "create-collection",
		Usage: "Create a new collection",
		Flags: []cli.Flag{
			addressFlag("address of the new collection, generated if missing", false),
			nameFlag,
			uriFlag,
			royaltyPercentageFlag,
			authorityKeyFlag,
			payerKeyFlag,
		},
		Action: createCollection,
	}
	mintCommand = cli.Command{
		Name:  "mint",
		Usage: "Mint a new asset into a collection",
		Flags: []cli.Flag{
			addressFlag("address of the new asset, generated if missing", false),
			collectionFlag(true),
			nameFlag,
			uriFlag,
			freezeFlag,
			ownerFlag,
			authorityKeyFlag,
			payerKeyFlag,
		},
		Action: mint,
	}
	updateCommand = cli.Command{
		Name:  "update",
		Usage: "Update the name and/or uri of an asset",
		Flags: []cli.Flag{
			assetFlag, collectionFlag(true), nameFlag, uriFlag, authorityKeyFlag, payerKeyFlag,
		},
		Action: update,
	}
	transferCommand = cli.Command{
		Name:  "transfer",
		Usage: "Transfer an asset to a new owner",
		Flags: []cli.Flag{
			assetFlag, collectionFlag(true), toFlag, authorityKeyFlag, payerKeyFlag,
		},
		Action: transfer,
	}
	freezeCommand = cli.Command{
		Name:  "freeze",
		Usage: "Freeze an asset carrying a FreezeDelegate plugin",
		Flags: []cli.Flag{assetFlag, collectionFlag(true), authorityKeyFlag, payerKeyFlag},
		Action: func(ctx *cli.Context) error {
			return setFrozen(ctx, true)
		},
	}
	thawCommand = cli.Command{
		Name:  "thaw",
		Usage: "Thaw a frozen asset",
		Flags: []cli.Flag{assetFlag, collectionFlag(true), authorityKeyFlag, payerKeyFlag},
		Action: func(ctx *cli.Context) error {
			return setFrozen(ctx, false)
		},
	}
	collectionCommand = cli.Command{
		Name:   "collection",
		Usage:  "Show a collection",
		Flags:  []cli.Flag{addressFlag("address of the collection", true)},
		Action: getCollection,
	}
	assetCommand = cli.Command{
		Name:   "asset",
		Usage:  "Show an asset",
		Flags:  []cli.Flag{addressFlag("address of the asset", true)},
		Action: getAsset,
	}
	assetsCommand = cli.Command{
		Name:   "assets",
		Usage:  "List assets, optionally filtered by collection and/or owner",
		Flags:  []cli.Flag{collectionFlag(false), ownerFlag},
		Action: listAssets,
	}
)

func keygen(ctx *cli.Context) error {
	s, err := generateSigner()
	if err != nil {
		return err
	}
	return printJSON(map[string]string{
		"private_key": hex.EncodeToString(s.key.Serialize()),
		"identity":    s.identity.String(),
	})
}

func createCollection(ctx *cli.Context) error {
	authority, payer, err := getSigners(ctx)
	if err != nil {
		return err
	}
	address, err := getAddress(ctx)
	if err != nil {
		return err
	}
	royaltyPercentage := ctx.Uint(royaltyPercentageFlagName)
	if royaltyPercentage > 100 {
		return fmt.Errorf("royalty percentage must be in range [0, 100]")
	}

	svc, err := cfg.AppService()
	if err != nil {
		return err
	}
	collection, svcErr := svc.CreateCollection(ctx.Context, application.CreateCollectionRequest{
		Address:           address,
		Name:              ctx.String(nameFlagName),
		Uri:               ctx.String(uriFlagName),
		RoyaltyPercentage: uint8(royaltyPercentage),
		Authority:         authority.identity,
		Payer:             payer.identity,
	})
	if svcErr != nil {
		return svcErr
	}
	return printJSON(collection)
}

func mint(ctx *cli.Context) error {
	authority, payer, err := getSigners(ctx)
	if err != nil {
		return err
	}
	address, err := getAddress(ctx)
	if err != nil {
		return err
	}
	collection, err := getIdentity(ctx, collectionFlagName)
	if err != nil {
		return err
	}
	owner, err := getIdentity(ctx, ownerFlagName)
	if err != nil {
		return err
	}
	if owner.IsZero() {
		owner = authority.identity
	}

	svc, err := cfg.AppService()
	if err != nil {
		return err
	}
	asset, svcErr := svc.MintAsset(ctx.Context, application.MintAssetRequest{
		Address:         address,
		Name:            ctx.String(nameFlagName),
		Uri:             ctx.String(uriFlagName),
		AddFreezePlugin: ctx.Bool(freezeFlagName),
		Collection:      collection,
		Authority:       authority.identity,
		Owner:           owner,
		Payer:           payer.identity,
	})
	if svcErr != nil {
		return svcErr
	}
	return printJSON(asset)
}

func update(ctx *cli.Context) error {
	authority, payer, err := getSigners(ctx)
	if err != nil {
		return err
	}
	asset, collection, err := getAssetRef(ctx)
	if err != nil {
		return err
	}

	// Only the flags explicitly passed are updated, an empty value clears
	// the field.
	var patch domain.AssetPatch
	if ctx.IsSet(nameFlagName) {
		patch.Name = domain.SetTo(ctx.String(nameFlagName))
	}
	if ctx.IsSet(uriFlagName) {
		patch.Uri = domain.SetTo(ctx.String(uriFlagName))
	}

	svc, err := cfg.AppService()
	if err != nil {
		return err
	}
	updated, svcErr := svc.UpdateAsset(ctx.Context, application.UpdateAssetRequest{
		Asset:      asset,
		Collection: collection,
		Patch:      patch,
		Authority:  authority.identity,
		Payer:      payer.identity,
	})
	if svcErr != nil {
		return svcErr
	}
	return printJSON(updated)
}

func transfer(ctx *cli.Context) error {
	authority, payer, err := getSigners(ctx)
	if err != nil {
		return err
	}
	asset, collection, err := getAssetRef(ctx)
	if err != nil {
		return err
	}
	newOwner, err := getIdentity(ctx, toFlagName)
	if err != nil {
		return err
	}

	svc, err := cfg.AppService()
	if err != nil {
		return err
	}
	transferred, svcErr := svc.TransferAsset(ctx.Context, application.TransferAssetRequest{
		Asset:      asset,
		Collection: collection,
		Authority:  authority.identity,
		NewOwner:   newOwner,
		Payer:      payer.identity,
	})
	if svcErr != nil {
		return svcErr
	}
	return printJSON(transferred)
}

func setFrozen(ctx *cli.Context, frozen bool) error {
	authority, payer, err := getSigners(ctx)
	if err != nil {
		return err
	}
	asset, collection, err := getAssetRef(ctx)
	if err != nil {
		return err
	}

	svc, err := cfg.AppService()
	if err != nil {
		return err
	}
	updated, svcErr := svc.UpdateFreezeDelegate(
		ctx.Context, application.UpdateFreezeDelegateRequest{
			Asset:      asset,
			Collection: collection,
			Frozen:     frozen,
			Authority:  authority.identity,
			Payer:      payer.identity,
		},
	)
	if svcErr != nil {
		return svcErr
	}
	return printJSON(updated)
}

func getCollection(ctx *cli.Context) error {
	address, err := getIdentity(ctx, addressFlagName)
	if err != nil {
		return err
	}

	svc, err := cfg.AppService()
	if err != nil {
		return err
	}
	collection, svcErr := svc.GetCollection(ctx.Context, address)
	if svcErr != nil {
		return svcErr
	}
	return printJSON(collection)
}

func getAsset(ctx *cli.Context) error {
	address, err := getIdentity(ctx, addressFlagName)
	if err != nil {
		return err
	}

	svc, err := cfg.AppService()
	if err != nil {
		return err
	}
	asset, svcErr := svc.GetAsset(ctx.Context, address)
	if svcErr != nil {
		return svcErr
	}
	return printJSON(asset)
}

func listAssets(ctx *cli.Context) error {
	collection, err := getIdentity(ctx, collectionFlagName)
	if err != nil {
		return err
	}
	owner, err := getIdentity(ctx, ownerFlagName)
	if err != nil {
		return err
	}

	svc, err := cfg.AppService()
	if err != nil {
		return err
	}
	assets, svcErr := svc.ListAssets(ctx.Context, domain.AssetFilter{
		Collection: collection,
		Owner:      owner,
	})
	if svcErr != nil {
		return svcErr
	}
	return printJSON(map[string]any{"assets": assets})
}

func getAssetRef(ctx *cli.Context) (asset, collection domain.Identity, err error) {
	asset, err = getIdentity(ctx, assetFlagName)
	if err != nil {
		return "", "", err
	}
	collection, err = getIdentity(ctx, collectionFlagName)
	if err != nil {
		return "", "", err
	}
	return asset, collection, nil
}
