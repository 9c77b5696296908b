package domain

import "time"

// GameType - kind of wager game
type GameType string

const (
	GameTypeRPS       GameType = "rps"
	GameTypeBlackjack GameType = "blackjack"
)

// GameResult - outcome from one player's point of view
type GameResult string

const (
	GameResultWin       GameResult = "win"
	GameResultLose      GameResult = "lose"
	GameResultDraw      GameResult = "draw"
	GameResultAbandoned GameResult = "abandoned"
)

// GameHistory - one row per player per finished session
type GameHistory struct {
	ID         int64                  `db:"id" json:"id"`
	UserID     int64                  `db:"user_id" json:"user_id"`
	GameType   GameType               `db:"game_type" json:"game_type"`
	OpponentID int64                  `db:"opponent_id" json:"opponent_id"`
	SessionID  string                 `db:"session_id" json:"session_id"`
	Result     GameResult             `db:"result" json:"result"`
	Stake      int64                  `db:"stake" json:"stake"`
	Amount     int64                  `db:"amount" json:"amount"` // signed gold moved for this player
	Details    map[string]interface{} `db:"details" json:"details,omitempty"`
	CreatedAt  time.Time              `db:"created_at" json:"created_at"`
}

// NewGameHistoryPair builds the two history rows of a finished session.
// winnerID nil means a draw (or an abandoned session when abandoned is set).
func NewGameHistoryPair(gameType GameType, sessionID string, players [2]int64, winnerID *int64, abandoned bool, stake, settled int64, details map[string]interface{}) []*GameHistory {
	result := make([]*GameHistory, 0, 2)

	for i, playerID := range players {
		opponentID := players[1-i]

		var (
			res    GameResult
			amount int64
		)
		switch {
		case abandoned:
			res = GameResultAbandoned
		case winnerID == nil:
			res = GameResultDraw
		case *winnerID == playerID:
			res = GameResultWin
			amount = settled
		default:
			res = GameResultLose
			amount = -settled
		}

		result = append(result, &GameHistory{
			UserID:     playerID,
			GameType:   gameType,
			OpponentID: opponentID,
			SessionID:  sessionID,
			Result:     res,
			Stake:      stake,
			Amount:     amount,
			Details:    details,
		})
	}

	return result
}
