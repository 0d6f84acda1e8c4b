package simon

// Error はクライアントに返すことを前提としたゲーム上のエラーです。
// Code は安定した識別子で、HTTPレスポンスの "status" にそのまま使われます。
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is は Code が一致すれば同じ種類のエラーとみなします。
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

var (
	ErrRoomNotFound         = &Error{Code: "ROOM_NOT_FOUND", Message: "room not found"}
	ErrRoomUnavailable      = &Error{Code: "ROOM_NOT_AVAILABLE", Message: "room is not available"}
	ErrRoomFull             = &Error{Code: "ROOM_FULL", Message: "room is full"}
	ErrSelfJoinForbidden    = &Error{Code: "CANNOT_JOIN_OWN_ROOM", Message: "cannot join your own room"}
	ErrInvalidColorSet      = &Error{Code: "INVALID_COLOR_SET", Message: "color set contains duplicate or malformed colors"}
	ErrColorCountMismatch   = &Error{Code: "COLOR_COUNT_MISMATCH", Message: "selected colors do not match color count"}
	ErrInvalidConfiguration = &Error{Code: "INVALID_CONFIGURATION", Message: "invalid room configuration"}
	ErrGameNotFound         = &Error{Code: "GAME_NOT_FOUND", Message: "game not found"}
	ErrInvalidUpdate        = &Error{Code: "INVALID_UPDATE", Message: "invalid game state update"}
	ErrGameFinished         = &Error{Code: "GAME_FINISHED", Message: "game already finished"}
	ErrGameNotPlaying       = &Error{Code: "GAME_NOT_PLAYING", Message: "game is not in progress"}
	ErrNotYourTurn          = &Error{Code: "NOT_YOUR_TURN", Message: "it is not your turn"}
	ErrNotAPlayer           = &Error{Code: "NOT_A_PLAYER", Message: "you are not a player in this room"}
)
