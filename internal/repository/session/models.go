package session

type Session struct {
	ModeratorId string `redis:"moderator_id"`
	Screen      string `redis:"screen"`
	VideoId     string `redis:"video_id"`
}

type Participant struct {
	Username string `redis:"username"`
	IsActive bool   `redis:"is_active"`
}
