package storage

import (
	"fmt"
	"strings"
	"time"

	"shorts-studio/internal/models"
	"shorts-studio/shared/apperr"
	"shorts-studio/shared/logger"
)

// MaxScenes is the number of production slots in a short.
const MaxScenes = 6

// Gallery is the newest-first list of generated clips.
type Gallery struct {
	doc *Document[[]models.GalleryItem]
	now func() time.Time
	log logger.Logger
}

func NewGallery(dataDir string, log logger.Logger) *Gallery {
	return &Gallery{
		doc: NewDocument(dataDir, "gallery.json", func() []models.GalleryItem { return []models.GalleryItem{} }, log),
		now: time.Now,
		log: log,
	}
}

func (g *Gallery) List() []models.GalleryItem {
	items := g.doc.Read()
	if items == nil {
		return []models.GalleryItem{}
	}
	return items
}

// Add prepends item, filling id and date when the caller left them empty.
func (g *Gallery) Add(item models.GalleryItem) (models.GalleryItem, error) {
	if strings.TrimSpace(item.URL) == "" || strings.TrimSpace(item.Title) == "" {
		return models.GalleryItem{}, apperr.New(apperr.InvalidInput, "gallery.add", "video url and title are required")
	}

	now := g.now()
	if item.ID == 0 {
		item.ID = now.UnixMilli()
	}
	if item.Date == "" {
		item.Date = now.Format(time.RFC3339)
	}

	err := g.doc.Update(func(items []models.GalleryItem) ([]models.GalleryItem, error) {
		return append([]models.GalleryItem{item}, items...), nil
	})
	if err != nil {
		return models.GalleryItem{}, err
	}

	g.log.Info("Gallery item saved", logger.Int64("id", item.ID), logger.String("title", item.Title))
	return item, nil
}

type SceneData map[string]models.SceneRecord

// SceneLibrary holds at most one record per scene slot.
type SceneLibrary struct {
	doc *Document[SceneData]
	now func() time.Time
	log logger.Logger
}

func NewSceneLibrary(dataDir string, log logger.Logger) *SceneLibrary {
	return &SceneLibrary{
		doc: NewDocument(dataDir, "video-scenes.json", func() SceneData { return SceneData{} }, log),
		now: time.Now,
		log: log,
	}
}

func SceneKey(n int) string {
	return fmt.Sprintf("scene%d", n)
}

func (s *SceneLibrary) All() SceneData {
	scenes := s.doc.Read()
	if scenes == nil {
		return SceneData{}
	}
	return scenes
}

// Save stores rec in its slot, replacing any previous record.
func (s *SceneLibrary) Save(rec models.SceneRecord) (string, error) {
	if rec.SceneNumber < 1 || rec.SceneNumber > MaxScenes {
		return "", apperr.New(apperr.InvalidInput, "scenes.save", fmt.Sprintf("scene number must be between 1 and %d, got %d", MaxScenes, rec.SceneNumber))
	}
	if rec.CreatedAt == "" {
		rec.CreatedAt = s.now().Format(time.RFC3339)
	}

	key := SceneKey(rec.SceneNumber)
	err := s.doc.Update(func(scenes SceneData) (SceneData, error) {
		if scenes == nil {
			scenes = SceneData{}
		}
		scenes[key] = rec
		return scenes, nil
	})
	if err != nil {
		return "", err
	}

	s.log.Info("Scene saved", logger.String("scene_key", key))
	return key, nil
}
