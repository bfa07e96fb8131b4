// Package i18n translates user-facing error codes.
package i18n

import (
	"net/http"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// LangParam is the query parameter used to select a language.
const LangParam = "lang"

var supported = []language.Tag{language.English, language.SimplifiedChinese}

var matcher = language.NewMatcher(supported)

// Message keys. Each is also the machine-readable error code in API responses.
const (
	KeyGameStarted     = "game_started"
	KeyGameNotStarted  = "game_not_started"
	KeySessionClosed   = "session_closed"
	KeyPlayerFull      = "player_full"
	KeyAlreadyJoined   = "already_joined"
	KeySeatTaken       = "seat_taken"
	KeySeatEmpty       = "seat_empty"
	KeyNotJoined       = "not_joined"
	KeyInvalidSeat     = "invalid_seat"
	KeyInvalidUser     = "invalid_user"
	KeyNotEnough       = "not_enough_players"
	KeyJudgeNotFound   = "judge_not_found"
	KeyAlreadyDead     = "already_dead"
	KeySeatsOccupied   = "seats_occupied"
	KeyJoinedElsewhere = "joined_elsewhere"
	KeyNoSession       = "no_session"
	KeyInvalidBoard    = "invalid_board"
	KeyPresetNotFound  = "preset_not_found"
	KeyAliasTaken      = "alias_taken"
	KeyForbidden       = "forbidden"
	KeyBadRequest      = "bad_request"
	KeyRateLimited     = "rate_limited"
	KeyInternal        = "internal_error"
)

var translations = map[string][2]string{
	KeyGameStarted:     {"A game is already running.", "游戏已经开始。"},
	KeyGameNotStarted:  {"No game is running.", "游戏尚未开始。"},
	KeySessionClosed:   {"This table was closed, please try again.", "该桌已关闭，请重试。"},
	KeyPlayerFull:      {"All seats are taken.", "座位已满。"},
	KeyAlreadyJoined:   {"You already have a seat.", "你已经在座位上了。"},
	KeySeatTaken:       {"That seat is taken.", "该座位已被占用。"},
	KeySeatEmpty:       {"That seat is empty.", "该座位为空。"},
	KeyNotJoined:       {"You are not seated.", "你还没有入座。"},
	KeyInvalidSeat:     {"There is no such seat.", "座位号无效。"},
	KeyInvalidUser:     {"Unknown user.", "用户无效。"},
	KeyNotEnough:       {"Not every seat is filled.", "玩家人数不足。"},
	KeyJudgeNotFound:   {"The judge seat is empty.", "还没有法官。"},
	KeyAlreadyDead:     {"That player is already dead.", "该玩家已经死亡。"},
	KeySeatsOccupied:   {"Players are still seated; clear the table first.", "还有玩家在座，请先清空座位。"},
	KeyJoinedElsewhere: {"You are seated in another group.", "你已在其他群入座。"},
	KeyNoSession:       {"No board has been set in this group.", "本群还没有设置板子。"},
	KeyInvalidBoard:    {"That board is not valid.", "板子无效。"},
	KeyPresetNotFound:  {"No such preset.", "没有这个预设。"},
	KeyAliasTaken:      {"That alias is already in use.", "该别名已被使用。"},
	KeyForbidden:       {"You are not allowed to do that.", "你没有权限这样做。"},
	KeyBadRequest:      {"The request is malformed.", "请求格式错误。"},
	KeyRateLimited:     {"Too many commands, slow down.", "操作太频繁，请稍后再试。"},
	KeyInternal:        {"Something went wrong.", "出错了。"},
}

func init() {
	for key, text := range translations {
		_ = message.SetString(language.English, key, text[0])
		_ = message.SetString(language.SimplifiedChinese, key, text[1])
	}
}

// Default returns the fallback language tag.
func Default() language.Tag {
	return language.English
}

// Supported returns the languages with a full translation set.
func Supported() []language.Tag {
	return append([]language.Tag(nil), supported...)
}

// Match maps any parseable tag onto a supported one.
func Match(tags ...language.Tag) language.Tag {
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No || idx < 0 || idx >= len(supported) {
		return Default()
	}
	return supported[idx]
}

// ParseTag parses value and matches it onto a supported tag.
func ParseTag(value string) (language.Tag, bool) {
	tag, err := language.Parse(strings.TrimSpace(value))
	if err != nil {
		return Default(), false
	}
	return Match(tag), true
}

// ResolveTag picks the language for r: the lang query parameter, then
// Accept-Language, then fallback.
func ResolveTag(r *http.Request, fallback language.Tag) language.Tag {
	if r == nil {
		return fallback
	}
	if v := strings.TrimSpace(r.URL.Query().Get(LangParam)); v != "" {
		if tag, ok := ParseTag(v); ok {
			return tag
		}
	}
	if accept := strings.TrimSpace(r.Header.Get("Accept-Language")); accept != "" {
		if tags, _, err := language.ParseAcceptLanguage(accept); err == nil && len(tags) > 0 {
			return Match(tags...)
		}
	}
	return fallback
}

// Printer returns a message printer for tag.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag)
}

// Text translates key into tag's language.
func Text(tag language.Tag, key string) string {
	return Printer(tag).Sprintf(key)
}
