package interpreter

import "strings"

// kind classifies a step key. Each kind has exactly one handler.
type kind int

const (
	kindUnknown kind = iota

	// Setup directives
	kindFlag
	kindNormalRun
	kindCheck
	kindNeedAllow
	kindRequire
	kindBlackscreen
	kindOpenMap

	// Primitive actions
	kindPress
	kindMove
	kindInteract
	kindFight
	kindTechnique
	kindLook
	kindMain
	kindAwait
	kindShutdown

	// Special visual targets
	kindFloor
	kindBack
	kindPlanet
	kindOrientation
	kindCheckpoint
	kindAnchor41
	kindAnchor43
	kindPurchase
	kindTransfer

	// Any other template
	kindVisual
)

var kindNames = map[kind]string{
	kindUnknown:     "unknown",
	kindFlag:        "flag",
	kindNormalRun:   "normal_run",
	kindCheck:       "check",
	kindNeedAllow:   "need_allow",
	kindRequire:     "require",
	kindBlackscreen: "blackscreen",
	kindOpenMap:     "map",
	kindPress:       "press",
	kindMove:        "move",
	kindInteract:    "interact",
	kindFight:       "fighting",
	kindTechnique:   "technique",
	kindLook:        "look",
	kindMain:        "main",
	kindAwait:       "await",
	kindShutdown:    "shutdown",
	kindFloor:       "floor",
	kindBack:        "back",
	kindPlanet:      "planet",
	kindOrientation: "orientation",
	kindCheckpoint:  "checkpoint",
	kindAnchor41:    "anchor_4-1",
	kindAnchor43:    "anchor_4-3",
	kindPurchase:    "purchase",
	kindTransfer:    "transfer",
	kindVisual:      "visual",
}

func (k kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// visual reports whether the kind clicks a template and so counts as a
// teleport click.
func (k kind) visual() bool {
	switch k {
	case kindFloor, kindBack, kindPlanet, kindOrientation, kindCheckpoint,
		kindAnchor41, kindAnchor43, kindVisual:
		return true
	}
	return false
}

// Template paths with bespoke handling.
const (
	orientationKey = "picture/orientation_1.png"
	purchaseKey    = "picture/max.png"
	transferKey    = "picture/transfer.png"
	anchor41Key    = "picture/map_4-1_point_2.png"
	checkpointPfx  = "picture/check_4-1_point"
	anchor43Pfx    = "picture/map_4-3_point"
)

var (
	floorKeys = map[string]bool{
		"picture/1floor.png": true,
		"picture/2floor.png": true,
		"picture/3floor.png": true,
	}
	backKeys = map[string]bool{
		"picture/fanhui_1.png": true,
		"picture/fanhui_2.png": true,
	}
	planetKeys = map[string]bool{
		"picture/orientation_2.png": true,
		"picture/orientation_3.png": true,
		"picture/orientation_4.png": true,
		"picture/orientation_5.png": true,
		"picture/orientation_6.png": true,
	}
	pressKeys = map[string]bool{
		"space": true, "caps": true, "r": true, "esc": true, "F4": true, "b": true,
		"1": true, "2": true, "3": true, "4": true, "5": true,
	}
	moveKeys = map[string]bool{"w": true, "a": true, "s": true, "d": true}
	lookKeys = map[string]bool{
		"mouse_move": true, "view_set": true, "view_reset": true, "view_rotate": true, "scroll": true,
	}
	flagKeys = map[string]bool{
		"drag": true, "drag_exact": true, "scene": true, "clicks": true, "forbid_retry": true,
	}
	needAllowKeys = map[string]string{
		"need_allow_map_buy":      "allow_map_buy",
		"need_allow_snack_buy":    "allow_snack_buy",
		"need_allow_memory_token": "allow_memory_token",
	}
)

// classify maps a normalised entry key to its kind. Keys that match nothing
// are kindUnknown; the map phase walks them like movement keys.
func classify(key string) kind {
	switch {
	case flagKeys[key]:
		return kindFlag
	case key == "normal_run":
		return kindNormalRun
	case key == "check":
		return kindCheck
	case needAllowKeys[key] != "":
		return kindNeedAllow
	case key == "require":
		return kindRequire
	case key == "blackscreen":
		return kindBlackscreen
	case key == "map":
		return kindOpenMap
	case pressKeys[key]:
		return kindPress
	case moveKeys[key]:
		return kindMove
	case key == "f":
		return kindInteract
	case key == "fighting":
		return kindFight
	case key == "e":
		return kindTechnique
	case lookKeys[key]:
		return kindLook
	case key == "main":
		return kindMain
	case key == "await":
		return kindAwait
	case key == "shutdown":
		return kindShutdown
	case floorKeys[key]:
		return kindFloor
	case backKeys[key]:
		return kindBack
	case planetKeys[key]:
		return kindPlanet
	case key == orientationKey:
		return kindOrientation
	case strings.HasPrefix(key, checkpointPfx):
		return kindCheckpoint
	case key == anchor41Key:
		return kindAnchor41
	case strings.HasPrefix(key, anchor43Pfx):
		return kindAnchor43
	case key == purchaseKey:
		return kindPurchase
	case key == transferKey:
		return kindTransfer
	case strings.HasSuffix(strings.ToLower(key), ".png"):
		return kindVisual
	default:
		return kindUnknown
	}
}
