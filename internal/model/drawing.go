package model

import "time"

type Drawing struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	TicketCost  int64     `json:"ticket_cost"`
	WinnerCount int       `json:"winner_count"`
	OpenTime    time.Time `json:"open_time"`
	CloseTime   time.Time `json:"close_time"`
	DrawTime    time.Time `json:"draw_time"`
}

type Ticket struct {
	ID             int64     `json:"id"`
	DrawingID      string    `json:"drawing_id"`
	UserID         string    `json:"user_id"`
	SequenceNumber int       `json:"sequence_number"`
	IsWinner       bool      `json:"is_winner"`
	PurchasedAt    time.Time `json:"purchased_at"`
}

type CreateDrawingRequest struct {
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	WinnerCount int       `json:"winner_count"`
	OpenTime    time.Time `json:"open_time"`
	CloseTime   time.Time `json:"close_time"`
	DrawTime    time.Time `json:"draw_time"`
}

type CreateDrawingResponse struct {
	Drawing Drawing `json:"drawing"`
}

type ScheduleDrawingRequest struct {
	DrawingID string `json:"drawing_id"`
}

type ScheduleDrawingResponse struct{}

type OpenDrawingRequest struct {
	DrawingID string `json:"drawing_id"`
}

type OpenDrawingResponse struct{}

type CloseDrawingRequest struct {
	DrawingID string `json:"drawing_id"`
}

type CloseDrawingResponse struct{}

type CancelDrawingRequest struct {
	DrawingID string `json:"drawing_id"`
	Reason    string `json:"reason"`
}

type CancelDrawingResponse struct{}

type GetDrawingRequest struct {
	DrawingID string `json:"drawing_id"`
}

type GetDrawingResponse struct {
	Drawing     Drawing `json:"drawing"`
	TicketCount int     `json:"ticket_count"`
}

type BuyTicketsRequest struct {
	DrawingID string `json:"drawing_id"`
	Quantity  int    `json:"quantity"`
}

type BuyTicketsResponse struct {
	Tickets []Ticket `json:"tickets"`
	Cost    int64    `json:"cost"`
	Balance int64    `json:"balance"`
}

type GetTicketsRequest struct {
	DrawingID string `json:"drawing_id"`
}

type GetTicketsResponse struct {
	Tickets []Ticket `json:"tickets"`
}

type ExecuteDrawingRequest struct {
	DrawingID string `json:"drawing_id"`
}

type ExecuteDrawingResponse struct {
	Winners          []Ticket  `json:"winners"`
	TicketCount      int       `json:"ticket_count"`
	RandomSeed       string    `json:"random_seed"`
	AlgorithmVersion string    `json:"algorithm_version"`
	WinningNumbers   []int     `json:"winning_numbers"`
	ExecutedAt       time.Time `json:"executed_at"`
}

type GetDrawingResultsRequest struct {
	DrawingID string `json:"drawing_id"`
}

type GetDrawingResultsResponse struct {
	Drawing          Drawing   `json:"drawing"`
	Winners          []Ticket  `json:"winners"`
	TicketCount      int       `json:"ticket_count"`
	RandomSeed       string    `json:"random_seed"`
	AlgorithmVersion string    `json:"algorithm_version"`
	WinningNumbers   []int     `json:"winning_numbers"`
	ExecutedAt       time.Time `json:"executed_at"`
}
