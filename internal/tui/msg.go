package tui

// MsgFlashExpired clears the message line if no newer message replaced it.
type MsgFlashExpired struct {
	Seq int
}
