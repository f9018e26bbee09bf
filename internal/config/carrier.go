package config

import (
	"time"

	"github.com/spf13/viper"
)

// CarrierConfig is the per-battle policy snapshot. It is copied by value into
// every controller and never mutated afterwards.
type CarrierConfig struct {
	MoraleEffect             float64
	MoraleRadius             float64
	MaximumMoraleWhileAround float64
	CarrierTroopCost         int
	MoraleTickInterval       time.Duration

	PerInfantry      int
	PerCavalry       int
	PerArcher        int
	PerHorseArcher   int
	PerSkirmisher    int
	PerHeavyInfantry int
	PerHeavyCavalry  int
	PerLightCavalry  int

	AllowSiegeAttackers bool
	AllowSiegeDefenders bool
	AllowRaidAttackers  bool
	AllowRaidDefenders  bool
	AllowInHideout      bool
	AllowNonNobles      bool

	AllowMoraleBoostForWalls        bool
	AllowMoraleBoostMessageForWalls bool
	UseTorchAtNight                 bool
	UseTierBasedBannerman           bool
	UseOrderRelay                   bool
	GiveSwordToHand                 bool
	UseRealTroopSystem              bool
	ExemptCarriersFromPenalty       bool
}

// DefaultCarrierConfig returns the built-in policy.
func DefaultCarrierConfig() CarrierConfig {
	return CarrierConfig{
		MoraleEffect:             10,
		MoraleRadius:             5,
		MaximumMoraleWhileAround: 40,
		CarrierTroopCost:         10,
		MoraleTickInterval:       5 * time.Second,

		PerInfantry:      5,
		PerCavalry:       5,
		PerArcher:        5,
		PerHorseArcher:   5,
		PerSkirmisher:    5,
		PerHeavyInfantry: 5,
		PerHeavyCavalry:  5,
		PerLightCavalry:  2,

		AllowSiegeAttackers: true,
		AllowRaidAttackers:  true,

		AllowMoraleBoostForWalls:        true,
		AllowMoraleBoostMessageForWalls: true,
		UseTierBasedBannerman:           true,
		UseOrderRelay:                   true,
		GiveSwordToHand:                 true,
		ExemptCarriersFromPenalty:       true,
	}
}

// GetCarrierConfig builds the policy snapshot from the loaded configuration.
// Keys follow the mod's Config.json layout.
func GetCarrierConfig() CarrierConfig {
	setDefaults()

	return CarrierConfig{
		MoraleEffect:             viper.GetFloat64("Banner.MoraleDropWhenBannermanKilled"),
		MoraleRadius:             viper.GetFloat64("Banner.MoraleRadius"),
		MaximumMoraleWhileAround: viper.GetFloat64("Banner.MaximumMoraleWhenAroundAllyBannerman"),
		CarrierTroopCost:         viper.GetInt("Banner.CarrierTroopCost"),
		MoraleTickInterval:       viper.GetDuration("Banner.MoraleTickInterval"),

		PerInfantry:      viper.GetInt("Banner.PerInfantry"),
		PerCavalry:       viper.GetInt("Banner.PerCavalry"),
		PerArcher:        viper.GetInt("Banner.PerArcher"),
		PerHorseArcher:   viper.GetInt("Banner.PerHorseArcher"),
		PerSkirmisher:    viper.GetInt("Banner.PerSkirmisher"),
		PerHeavyInfantry: viper.GetInt("Banner.PerHeavyInfantry"),
		PerHeavyCavalry:  viper.GetInt("Banner.PerHeavyCavalry"),
		PerLightCavalry:  viper.GetInt("Banner.PerLightCavalry"),

		AllowSiegeAttackers: viper.GetBool("Banner.AllowSiegeAttackers"),
		AllowSiegeDefenders: viper.GetBool("Banner.AllowSiegeDefenders"),
		AllowRaidAttackers:  viper.GetBool("Banner.AllowRaidAttackers"),
		AllowRaidDefenders:  viper.GetBool("Banner.AllowRaidDefenders"),
		AllowInHideout:      viper.GetBool("Banner.AllowInHideout"),
		AllowNonNobles:      viper.GetBool("Extra.AllowNonNobleArmiesToCarryBanner"),

		AllowMoraleBoostForWalls:        viper.GetBool("Banner.AllowMoraleBoostWhenBannermenReachWalls"),
		AllowMoraleBoostMessageForWalls: viper.GetBool("Banner.AllowBannermenReachedMessageAndSound"),
		UseTorchAtNight:                 viper.GetBool("Extra.AlsoUseTorchAtNight"),
		UseTierBasedBannerman:           viper.GetBool("Extra.UseTierBasedBannerman"),
		UseOrderRelay:                   viper.GetBool("Extra.UseResponsiveUnits"),
		GiveSwordToHand:                 viper.GetBool("Banner.GiveSwordToHand"),
		UseRealTroopSystem:              viper.GetBool("Banner.UseRealTroopSystem"),
		ExemptCarriersFromPenalty:       viper.GetBool("Banner.ExemptBannermenFromMoralePenalty"),
	}
}
