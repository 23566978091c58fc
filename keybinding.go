package main

import (
	"fmt"
	"strings"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// keyState is the keyboard as seen in one frame.
type keyState interface {
	JustPressed(key ebiten.Key) bool
	Pressed(key ebiten.Key) bool
}

// ebitenKeys reads the live ebiten keyboard.
type ebitenKeys struct{}

func (ebitenKeys) JustPressed(key ebiten.Key) bool { return inpututil.IsKeyJustPressed(key) }
func (ebitenKeys) Pressed(key ebiten.Key) bool     { return ebiten.IsKeyPressed(key) }

// Modifiers is the modifier key state that must match a binding exactly.
type Modifiers struct {
	Shift bool
	Ctrl  bool
	Alt   bool
}

func currentModifiers(keys keyState) Modifiers {
	return Modifiers{
		Shift: keys.Pressed(ebiten.KeyShift),
		Ctrl:  keys.Pressed(ebiten.KeyControl),
		Alt:   keys.Pressed(ebiten.KeyAlt),
	}
}

// parseModifiers fills m from the modifier parts of a binding string.
func parseModifiers(parts []string) (Modifiers, error) {
	var m Modifiers
	for _, p := range parts {
		switch strings.ToLower(p) {
		case "shift":
			m.Shift = true
		case "ctrl":
			m.Ctrl = true
		case "alt":
			m.Alt = true
		default:
			return m, fmt.Errorf("unknown modifier: %s", p)
		}
	}
	return m, nil
}

// getKeyMapping returns a mapping from string keys to Ebiten keys
func getKeyMapping() map[string]ebiten.Key {
	m := map[string]ebiten.Key{
		// Special keys
		"Space":      ebiten.KeySpace,
		"Backspace":  ebiten.KeyBackspace,
		"Enter":      ebiten.KeyEnter,
		"Escape":     ebiten.KeyEscape,
		"Tab":        ebiten.KeyTab,
		"Home":       ebiten.KeyHome,
		"End":        ebiten.KeyEnd,
		"PageUp":     ebiten.KeyPageUp,
		"PageDown":   ebiten.KeyPageDown,
		"ArrowUp":    ebiten.KeyArrowUp,
		"ArrowDown":  ebiten.KeyArrowDown,
		"ArrowLeft":  ebiten.KeyArrowLeft,
		"ArrowRight": ebiten.KeyArrowRight,

		// Punctuation
		"Comma":     ebiten.KeyComma,
		"Period":    ebiten.KeyPeriod,
		"Slash":     ebiten.KeySlash,
		"Semicolon": ebiten.KeySemicolon,
		"Quote":     ebiten.KeyQuote,
		"Minus":     ebiten.KeyMinus,
		"Equal":     ebiten.KeyEqual,

		"NumpadEnter": ebiten.KeyNumpadEnter,
	}
	// Letters, digits and numpad digits follow the ebiten key order.
	for i := 0; i < 26; i++ {
		m[fmt.Sprintf("Key%c", 'A'+i)] = ebiten.KeyA + ebiten.Key(i)
	}
	for i := 0; i < 10; i++ {
		m[fmt.Sprintf("Key%d", i)] = ebiten.Key0 + ebiten.Key(i)
		m[fmt.Sprintf("Numpad%d", i)] = ebiten.KeyNumpad0 + ebiten.Key(i)
	}
	return m
}

// KeyCombination represents a key with optional modifiers
type KeyCombination struct {
	Key  ebiten.Key
	Mods Modifiers
}

// parseKeyString parses a key string like "Shift+KeyB" into a KeyCombination
func parseKeyString(keyStr string, keyMapping map[string]ebiten.Key) (KeyCombination, error) {
	if keyStr == "" {
		return KeyCombination{}, fmt.Errorf("empty key string")
	}
	parts := strings.Split(keyStr, "+")

	keyName := parts[len(parts)-1]
	key, exists := keyMapping[keyName]
	if !exists {
		return KeyCombination{}, fmt.Errorf("unknown key: %s", keyName)
	}
	mods, err := parseModifiers(parts[:len(parts)-1])
	if err != nil {
		return KeyCombination{}, err
	}
	return KeyCombination{Key: key, Mods: mods}, nil
}

// KeybindingManager maps key presses to actions
type KeybindingManager struct {
	keybindings map[string][]string
	compiled    map[string][]KeyCombination
}

// NewKeybindingManager creates a new KeybindingManager. Unparseable
// bindings are skipped; config loading has already reported them.
func NewKeybindingManager(keybindings map[string][]string) *KeybindingManager {
	km := &KeybindingManager{}
	km.UpdateKeybindings(keybindings)
	return km
}

// CheckAction reports whether any keybinding for action was pressed this frame
func (km *KeybindingManager) CheckAction(action string, keys keyState) bool {
	combos := km.compiled[action]
	if len(combos) == 0 {
		return false
	}
	mods := currentModifiers(keys)
	for _, c := range combos {
		if keys.JustPressed(c.Key) && c.Mods == mods {
			return true
		}
	}
	return false
}

// ExecuteAction executes action if one of its keys was pressed
func (km *KeybindingManager) ExecuteAction(action string, keys keyState, inputActions InputActions, inputState InputState) bool {
	if !km.CheckAction(action, keys) {
		return false
	}
	debugLog("key action: %s", action)
	return globalActionExecutor.ExecuteAction(action, inputActions, inputState)
}

// GetKeybindings returns the current keybindings map (for display purposes)
func (km *KeybindingManager) GetKeybindings() map[string][]string {
	return km.keybindings
}

// UpdateKeybindings replaces the keybindings map
func (km *KeybindingManager) UpdateKeybindings(keybindings map[string][]string) {
	mapping := getKeyMapping()
	km.keybindings = keybindings
	km.compiled = make(map[string][]KeyCombination, len(keybindings))
	for action, keyStrings := range keybindings {
		for _, s := range keyStrings {
			c, err := parseKeyString(s, mapping)
			if err != nil {
				debugLog("skipping keybinding %q for %s: %v", s, action, err)
				continue
			}
			km.compiled[action] = append(km.compiled[action], c)
		}
	}
}
