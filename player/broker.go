package player

import (
	"fmt"
	"time"
)

type (
	// Broker passes messages between the audio thread and the rest of the
	// program. ToPlayer is read by the Player at the start of every Process
	// call; ToModel carries Alerts and other messages out of the audio thread,
	// e.g. to be logged. Neither side ever blocks on the other: if a channel is
	// full, the message is dropped.
	Broker struct {
		ToPlayer chan any
		ToModel  chan MsgToModel
	}

	// MsgToModel is a message sent by the player. Voices is the number of
	// sounding voices after the message was sent; Data holds an Alert or
	// another infrequent message.
	MsgToModel struct {
		Voices int
		Data   any
	}

	// Alert is a condition the player wants the user to know about.
	Alert struct {
		Name     string
		Priority AlertPriority
		Message  string
	}

	AlertPriority int

	// PanicMsg stops every voice at once.
	PanicMsg struct{}
)

const (
	Info AlertPriority = iota
	Warning
	Error
)

func NewBroker() *Broker {
	return &Broker{
		ToPlayer: make(chan any, 1024),
		ToModel:  make(chan MsgToModel, 1024),
	}
}

func (p AlertPriority) String() string {
	switch p {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Error:
		return "error"
	}
	return fmt.Sprintf("AlertPriority(%d)", int(p))
}

func (a Alert) Error() string {
	return a.Name + ": " + a.Message
}

// TrySend sends v on c if c has room and reports whether it did. It never
// blocks, so the audio thread can use it to post alerts.
func TrySend[T any](c chan<- T, v T) bool {
	select {
	case c <- v:
		return true
	default:
		return false
	}
}

// TimeoutReceive waits at most t for a value from c. ok is false on a timeout
// or when c is closed.
func TimeoutReceive[T any](c <-chan T, t time.Duration) (v T, ok bool) {
	timer := time.NewTimer(t)
	defer timer.Stop()
	select {
	case v, ok = <-c:
	case <-timer.C:
	}
	return v, ok
}
