package bot

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/PercevalSA/aoe2-telegram-bot/internal/audio"
)

const welcomeText = "🏰 *Bienvenue sur le bot Sound Box Age of Empires II!* ⚔️\n\n" +
	"utilisez /aide pour la liste des commandes.\n" +
	"use /help for the list of commands.\n\n" +
	"Vous pouvez aussi utiliser /start pour revenir à ce message.\n" +
	"You can also use /start to return here."

// HelpEnglish is the /help message.
const HelpEnglish = `
🏰 *Age of Empires II Bot* 🎮

*Random Audio Commands:*
/sound - Get a random AoE2 quote
/taunt - Get a random taunt
/civilization - Get a random civilization sound

*Specific Commands:*
/1 to /42 - Get a specific taunt by number
    _Example: /11 for "11"_
/britons, /celts, /vikings, etc. - Get a specific civilization sound
    _Example: /britons_

*List Commands:*
/taunts - Show all available taunts
/civilizations - Show all available civilizations
/sounds - Show all available sounds

*Help:*
/help - Show this help message (English)
/start - Welcome message

à la bataille! ⚔️
`

// HelpFrench is the /aide message.
const HelpFrench = `
🏰 *Bot Age of Empires II* 🎮

*Commandes audio aléatoires :*
/bruitage - Obtenir un son aléatoire de AoE2
/provocation - Obtenir une provocation aléatoire
/civilisation - Obtenir un son de civilisation aléatoire

*Commandes spécifiques :*
/1 à /42 - Obtenir une provocation spécifique par numéro
/britons, /celts, /vikings, etc. - Obtenir un son de civilisation spécifique

*Commandes de listes :*
/provocations - Afficher toutes les provocations disponibles
/civilisations - Afficher toutes les civilisations disponibles
/bruits - Afficher tous les sons disponibles

*Aide :*
/aide - Afficher ce message d'aide (Français)
/start - Message de bienvenue

à la bataille ! ⚔️
`

const (
	unknownText = "Unknown command. Use /help to see available commands.\n" +
		"Commande inconnue. Utilisez /aide pour voir les commandes disponibles."
	noAudioText     = "Sorry, no audio files available."
	noTauntsText    = "No taunts available."
	noSoundsText    = "No sounds available."
	notAllowedText  = "This command is reserved to the bot administrators."
	cacheClearedFmt = "File id cache cleared (%d entries removed)."
)

func tauntNotFound(n int) string {
	return fmt.Sprintf("Taunt %02d not found", n)
}

func civilizationNotFound(name string, suggestions []string) string {
	text := fmt.Sprintf("Civilization %s not found", name)
	if len(suggestions) > 0 {
		text += "\nDid you mean /" + suggestions[0] + "?"
	}
	return text
}

func civilizationList(names []string) string {
	var b strings.Builder
	b.WriteString("Available civilizations:")
	for _, n := range names {
		b.WriteString("\n/" + n)
	}
	return b.String()
}

func tauntList(taunts []audio.TauntEntry) string {
	if len(taunts) == 0 {
		return noTauntsText
	}
	var b strings.Builder
	b.WriteString("Available taunts:")
	for _, t := range taunts {
		fmt.Fprintf(&b, "\n/%s: %s", t.Number, t.Text)
	}
	return b.String()
}

func soundList(names []string) string {
	if len(names) == 0 {
		return noSoundsText
	}
	return fmt.Sprintf("Available sounds (%d files):\n%s", len(names), strings.Join(names, "\n"))
}

func cacheList(ids map[string]string) string {
	if len(ids) == 0 {
		return "File id cache is empty."
	}
	names := slices.Sorted(maps.Keys(ids))
	return fmt.Sprintf("File id cache (%d entries):\n%s", len(ids), strings.Join(names, "\n"))
}
