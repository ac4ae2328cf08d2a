package main

import (
	"github.com/urfave/cli/v2"
)

const (
	authorityKeyFlagName      = "authority-prvkey"
	payerKeyFlagName          = "payer-prvkey"
	addressFlagName           = "address"
	nameFlagName              = "name"
	uriFlagName               = "uri"
	royaltyPercentageFlagName = "royalty-percentage"
	collectionFlagName        = "collection"
	assetFlagName             = "asset"
	ownerFlagName             = "owner"
	freezeFlagName            = "freeze"
	toFlagName                = "to"
)

var (
	authorityKeyFlag = &cli.StringFlag{
		Name:  authorityKeyFlagName,
		Usage: "hex private key of the signing authority, fallback to ASSETREG_AUTHORITY_PRVKEY",
	}
	payerKeyFlag = &cli.StringFlag{
		Name:  payerKeyFlagName,
		Usage: "hex private key of the payer, defaults to the authority",
	}
	addressFlag = func(usage string, required bool) *cli.StringFlag {
		return &cli.StringFlag{
			Name:     addressFlagName,
			Usage:    usage,
			Required: required,
		}
	}
	nameFlag = &cli.StringFlag{
		Name:  nameFlagName,
		Usage: "display name",
	}
	uriFlag = &cli.StringFlag{
		Name:  uriFlagName,
		Usage: "uri of the off-chain metadata",
	}
	royaltyPercentageFlag = &cli.UintFlag{
		Name:  royaltyPercentageFlagName,
		Usage: "royalty percentage (0-100) paid to the collection creator",
	}
	collectionFlag = func(required bool) *cli.StringFlag {
		return &cli.StringFlag{
			Name:     collectionFlagName,
			Usage:    "address of the collection",
			Required: required,
		}
	}
	assetFlag = &cli.StringFlag{
		Name:     assetFlagName,
		Usage:    "address of the asset",
		Required: true,
	}
	ownerFlag = &cli.StringFlag{
		Name:  ownerFlagName,
		Usage: "owner identity, defaults to the authority",
	}
	freezeFlag = &cli.BoolFlag{
		Name:  freezeFlagName,
		Usage: "attach a FreezeDelegate plugin to the asset",
	}
	toFlag = &cli.StringFlag{
		Name:     toFlagName,
		Usage:    "identity of the new owner",
		Required: true,
	}
)
