package handlers

import (
	"embed"
	"encoding/json"

	"github.com/gin-gonic/gin"
)

//go:embed content/*.json
var contentFS embed.FS

type Video struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Thumbnail   string `json:"thumbnail"`
}

type TipCategory struct {
	Category string   `json:"category"`
	Tips     []string `json:"tips"`
}

type HealthTips struct {
	HealthTips     []TipCategory `json:"health_tips"`
	VideoTutorials []Video       `json:"video_tutorials"`
}

type SelfDefense struct {
	DefenseTips   []string `json:"defense_tips"`
	DefenseVideos []Video  `json:"defense_videos"`
}

type Article struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Image    string `json:"image"`
	Category string `json:"category"`
	Date     string `json:"date"`
}

type LatestArticles struct {
	Articles []Article `json:"articles"`
}

var (
	healthTips     = mustLoadContent[HealthTips]("content/health_tips.json")
	selfDefense    = mustLoadContent[SelfDefense]("content/self_defense.json")
	latestArticles = mustLoadContent[LatestArticles]("content/latest_articles.json")
)

func mustLoadContent[T any](name string) T {
	var v T
	raw, err := contentFS.ReadFile(name)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		panic(name + ": " + err.Error())
	}
	return v
}

func (h *Handlers) handleHealthTips(c *gin.Context) {
	renderPage(c, "health_tips", gin.H{
		"health_tips":     healthTips.HealthTips,
		"video_tutorials": healthTips.VideoTutorials,
	})
}

func (h *Handlers) handleSelfDefense(c *gin.Context) {
	renderPage(c, "self_defense", gin.H{
		"defense_tips":   selfDefense.DefenseTips,
		"defense_videos": selfDefense.DefenseVideos,
	})
}

func (h *Handlers) handleLatestArticles(c *gin.Context) {
	renderPage(c, "latest_articles", gin.H{"articles": latestArticles.Articles})
}
