package scenario

import (
	"fmt"
	"strings"
	"time"
)

// ActionKind identifies an action variant.
type ActionKind string

const (
	ActionTap       ActionKind = "tap"
	ActionDoubleTap ActionKind = "doubleTap"
	ActionLongPress ActionKind = "longPress"
	ActionSwipe     ActionKind = "swipe"
	ActionTypeText  ActionKind = "typeText"
	ActionWait      ActionKind = "wait"
)

// Direction is the direction of a swipe gesture.
type Direction string

const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// DefaultLongPressDuration is used when a long press has no duration.
const DefaultLongPressDuration = time.Second

// ParseDirection parses a swipe direction, case-insensitive.
func ParseDirection(s string) (Direction, error) {
	switch d := Direction(strings.ToLower(strings.TrimSpace(s))); d {
	case DirectionUp, DirectionDown, DirectionLeft, DirectionRight:
		return d, nil
	default:
		return "", fmt.Errorf("invalid swipe direction %q (want up, down, left or right)", s)
	}
}

// Action is one side-effecting interaction. Variants share a single struct;
// only the fields relevant to Kind are set.
type Action struct {
	Kind      ActionKind
	Direction Direction     // swipe
	Text      string        // typeText
	Duration  time.Duration // wait, longPress
}

// TapAction returns a tap.
func TapAction() Action { return Action{Kind: ActionTap} }

// DoubleTapAction returns a double tap.
func DoubleTapAction() Action { return Action{Kind: ActionDoubleTap} }

// LongPressAction returns a press held for d.
func LongPressAction(d time.Duration) Action {
	return Action{Kind: ActionLongPress, Duration: d}
}

// SwipeAction returns a swipe in the given direction.
func SwipeAction(dir Direction) Action {
	return Action{Kind: ActionSwipe, Direction: dir}
}

// TypeTextAction returns a text entry.
func TypeTextAction(text string) Action {
	return Action{Kind: ActionTypeText, Text: text}
}

// WaitAction returns a fixed pause.
func WaitAction(d time.Duration) Action {
	return Action{Kind: ActionWait, Duration: d}
}

// NeedsElement returns true if the action is performed on an element.
func (a Action) NeedsElement() bool {
	return a.Kind != ActionWait
}

// Validate checks that the variant carries the parameters it needs.
func (a Action) Validate() error {
	switch a.Kind {
	case ActionTap, ActionDoubleTap:
		return nil
	case ActionLongPress:
		if a.Duration < 0 {
			return fmt.Errorf("longPress duration must not be negative")
		}
		return nil
	case ActionSwipe:
		_, err := ParseDirection(string(a.Direction))
		return err
	case ActionTypeText:
		if a.Text == "" {
			return fmt.Errorf("typeText requires text")
		}
		return nil
	case ActionWait:
		if a.Duration <= 0 {
			return fmt.Errorf("wait requires a positive duration")
		}
		return nil
	case "":
		return fmt.Errorf("action kind is empty")
	default:
		return fmt.Errorf("unknown action %q", a.Kind)
	}
}

// Describe returns a human-readable description.
func (a Action) Describe() string {
	switch a.Kind {
	case ActionSwipe:
		return fmt.Sprintf("swipe %s", a.Direction)
	case ActionTypeText:
		return fmt.Sprintf("typeText %q", a.Text)
	case ActionWait:
		return fmt.Sprintf("wait %s", a.Duration)
	case ActionLongPress:
		return fmt.Sprintf("longPress %s", a.Duration)
	default:
		return string(a.Kind)
	}
}
