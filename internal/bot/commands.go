package bot

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/PercevalSA/aoe2-telegram-bot/internal/audio"
)

// HandlerFunc answers one command message.
type HandlerFunc func(ctx context.Context, msg *tgbotapi.Message) error

type command struct {
	names   []string
	handler HandlerFunc
	admin   bool
}

// staticCommands are the commands that exist whatever the audio directory
// holds. English and French names share a handler.
func (b *Bot) staticCommands() []command {
	return []command{
		{names: []string{"start"}, handler: b.start},
		{names: []string{"help"}, handler: b.help},
		{names: []string{"aide"}, handler: b.aide},
		{names: []string{"sound", "bruitage"}, handler: b.random(audio.Sound)},
		{names: []string{"civilization", "civilisation"}, handler: b.random(audio.Civilization)},
		{names: []string{"taunt", "provocation"}, handler: b.random(audio.Taunt)},
		{names: []string{"sounds", "bruits"}, handler: b.listSounds},
		{names: []string{"civilizations", "civilisations"}, handler: b.listCivilizations},
		{names: []string{"taunts", "provocations"}, handler: b.listTaunts},
		{names: []string{"cache"}, handler: b.listCache, admin: true},
		{names: []string{"resetcache"}, handler: b.resetCache, admin: true},
	}
}

// menu is published with setMyCommands. Telegram only accepts lowercase
// names, so per-civilization and per-taunt commands are left out.
var menu = []tgbotapi.BotCommand{
	{Command: "start", Description: "Welcome message / Message de bienvenue"},
	{Command: "help", Description: "Show the list of commands"},
	{Command: "aide", Description: "Afficher la liste des commandes"},
	{Command: "sound", Description: "Get a random AoE2 quote"},
	{Command: "bruitage", Description: "Obtenir un son aléatoire"},
	{Command: "taunt", Description: "Get a random taunt"},
	{Command: "provocation", Description: "Obtenir une provocation aléatoire"},
	{Command: "civilization", Description: "Get a random civilization sound"},
	{Command: "civilisation", Description: "Obtenir un son de civilisation aléatoire"},
	{Command: "taunts", Description: "Show all available taunts"},
	{Command: "provocations", Description: "Afficher toutes les provocations"},
	{Command: "civilizations", Description: "Show all available civilizations"},
	{Command: "civilisations", Description: "Afficher toutes les civilisations"},
	{Command: "sounds", Description: "Show all available sounds"},
	{Command: "bruits", Description: "Afficher tous les sons"},
}

// Refresh rebuilds the command table from the audio directory: one command
// per taunt number, with and without zero padding, and one per
// civilization. Static commands win over a civilization of the same name.
func (b *Bot) Refresh() {
	commands := make(map[string]HandlerFunc)

	numbers, err := b.library.TauntNumbers()
	if err != nil {
		b.logger.Error("Could not list taunts", "error", err)
	}
	for _, n := range numbers {
		commands[strconv.Itoa(n)] = b.taunt
		commands[fmt.Sprintf("%02d", n)] = b.taunt
	}

	civs, err := b.library.Names(audio.Civilization)
	if err != nil {
		b.logger.Error("Could not list civilizations", "error", err)
	}
	for _, c := range civs {
		commands[strings.ToLower(c)] = b.civilization
	}

	for _, c := range b.staticCommands() {
		h := c.handler
		if c.admin {
			h = b.adminOnly(h)
		}
		for _, name := range c.names {
			commands[name] = h
		}
	}

	b.mu.Lock()
	b.commands = commands
	b.mu.Unlock()

	b.logger.Info("Registered commands", "total", len(commands), "taunts", len(numbers), "civilizations", len(civs))
}

// lookup returns the handler of a command name. Names are matched without
// regard to case; anything unknown gets the unknown command reply.
func (b *Bot) lookup(name string) HandlerFunc {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if h, ok := b.commands[strings.ToLower(name)]; ok {
		return h
	}
	return b.unknown
}

// Commands returns the registered command names, sorted.
func (b *Bot) Commands() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return slices.Sorted(maps.Keys(b.commands))
}
