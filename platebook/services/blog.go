package services

import (
	"fmt"
	"net/http"
	"platebook/platebook/auth"
	"platebook/platebook/schema"
	"platebook/platebook/storage"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BlogService struct {
	db       *gorm.DB
	userAuth auth.IdentityProvider
	store    storage.Store
}

func (s *BlogService) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Get("/articles", s.ListArticles)
		r.Get("/stories", s.ListStories)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.userAuth.AuthMiddleware()...)
		r.Use(auth.AdminOnly(s.db))

		r.Post("/articles", s.CreateArticle)
		r.Post("/articles/{article_id}/image", s.UploadArticleImage)
		r.Post("/stories", s.CreateStory)
	})

	return r
}

type ArticleInfo struct {
	Id        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Title     string            `json:"title"`
	Subtitle  string            `json:"subtitle"`
	Text      string            `json:"text"`
	UserId    string            `json:"user_id"`
	ImageURLs map[string]string `json:"image_urls,omitempty"`
}

func (s *BlogService) ListArticles(w http.ResponseWriter, r *http.Request) {
	count := schema.MaxArticles
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "'count' must be a positive integer", http.StatusBadRequest)
			return
		}
		if parsed < count {
			count = parsed
		}
	}

	var articles []schema.Article
	result := s.db.Order("created_at DESC").Limit(count).Find(&articles)
	if result.Error != nil {
		writeError(w, schema.NewDbError("listing articles", result.Error))
		return
	}

	infos := make([]ArticleInfo, 0, len(articles))
	for _, article := range articles {
		info := ArticleInfo{
			Id:        article.Id,
			CreatedAt: article.CreatedAt,
			Title:     article.Title,
			Subtitle:  article.Subtitle,
			Text:      article.Text,
			UserId:    article.UserId,
		}
		if article.Image != "" {
			urls, err := storage.ImageURLs(r.Context(), s.store, article.Image)
			if err != nil {
				writeError(w, err)
				return
			}
			info.ImageURLs = urls
		}
		infos = append(infos, info)
	}

	writeJsonResponse(w, infos)
}

type createArticleRequest struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Text     string `json:"text"`
}

type createArticleResponse struct {
	ArticleId string `json:"article_id"`
}

func (s *BlogService) CreateArticle(w http.ResponseWriter, r *http.Request) {
	caller, err := auth.GetCaller(r, s.db)
	if err != nil {
		writeError(w, err)
		return
	}

	var params createArticleRequest
	if !parseRequestBody(w, r, &params) {
		return
	}
	if params.Title == "" {
		http.Error(w, "'title' must be provided", http.StatusBadRequest)
		return
	}

	article := schema.Article{
		Id:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Title:     params.Title,
		Subtitle:  params.Subtitle,
		Text:      params.Text,
		UserId:    caller.UserId,
	}

	result := s.db.Create(&article)
	if result.Error != nil {
		writeError(w, schema.NewDbError("creating article", result.Error))
		return
	}

	writeJsonResponse(w, createArticleResponse{ArticleId: article.Id})
}

func (s *BlogService) UploadArticleImage(w http.ResponseWriter, r *http.Request) {
	articleId := chi.URLParam(r, "article_id")

	var article schema.Article
	result := s.db.Find(&article, "id = ?", articleId)
	if result.Error != nil {
		writeError(w, schema.NewDbError("locating article", result.Error))
		return
	}
	if result.RowsAffected != 1 {
		writeError(w, fmt.Errorf("%w: article %v", schema.ErrNotFound, articleId))
		return
	}

	file, ok := readMultipartImage(w, r)
	if !ok {
		return
	}
	defer file.Close()

	base := storage.ArticleImageBase(articleId)

	if err := storage.UploadImage(r.Context(), s.store, base, file); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result = s.db.Model(&article).Update("image", base)
	if result.Error != nil {
		writeError(w, schema.NewDbError("updating article image", result.Error))
		return
	}

	writeSuccess(w)
}

type StoryInfo struct {
	Id            string              `json:"id"`
	Title         string              `json:"title"`
	ThumbnailURLs map[string]string   `json:"thumbnail_urls,omitempty"`
	ItemURLs      []map[string]string `json:"item_urls"`
}

func (s *BlogService) ListStories(w http.ResponseWriter, r *http.Request) {
	var stories []schema.Story
	result := s.db.Preload("Items").Order("created_at DESC").Limit(schema.MaxStories).Find(&stories)
	if result.Error != nil {
		writeError(w, schema.NewDbError("listing stories", result.Error))
		return
	}

	infos := make([]StoryInfo, 0, len(stories))
	for _, story := range stories {
		info := StoryInfo{Id: story.Id, Title: story.Title, ItemURLs: []map[string]string{}}

		if story.Thumbnail != "" {
			urls, err := storage.ImageURLs(r.Context(), s.store, story.Thumbnail)
			if err != nil {
				writeError(w, err)
				return
			}
			info.ThumbnailURLs = urls
		}

		for _, item := range story.Items {
			urls, err := storage.ImageURLs(r.Context(), s.store, item.Image)
			if err != nil {
				writeError(w, err)
				return
			}
			info.ItemURLs = append(info.ItemURLs, urls)
		}

		infos = append(infos, info)
	}

	writeJsonResponse(w, infos)
}

type createStoryResponse struct {
	StoryId string `json:"story_id"`
}

// CreateStory takes a multipart form with a "title" field, a "thumbnail"
// file and any number of "images" files. All uploads happen before the
// story row is written.
func (s *BlogService) CreateStory(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageUploadBytes); err != nil {
		http.Error(w, fmt.Sprintf("error parsing multipart form: %v", err), http.StatusBadRequest)
		return
	}

	title := r.FormValue("title")
	if title == "" {
		http.Error(w, "'title' form field missing", http.StatusBadRequest)
		return
	}

	thumbnail, _, err := r.FormFile("thumbnail")
	if err != nil {
		http.Error(w, "'thumbnail' form file missing", http.StatusBadRequest)
		return
	}
	defer thumbnail.Close()

	storyId := uuid.NewString()

	thumbnailBase := storage.StoryThumbnailBase(storyId)
	if err := storage.UploadImage(r.Context(), s.store, thumbnailBase, thumbnail); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	story := schema.Story{Id: storyId, Title: title, Thumbnail: thumbnailBase}

	for _, header := range r.MultipartForm.File["images"] {
		file, err := header.Open()
		if err != nil {
			http.Error(w, fmt.Sprintf("error reading story image: %v", err), http.StatusBadRequest)
			return
		}

		itemId := uuid.NewString()
		itemBase := storage.StoryImageBase(storyId, itemId)
		err = storage.UploadImage(r.Context(), s.store, itemBase, file)
		file.Close()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		story.Items = append(story.Items, schema.StoryItem{Id: itemId, StoryId: storyId, Image: itemBase})
	}

	result := s.db.Create(&story)
	if result.Error != nil {
		writeError(w, schema.NewDbError("creating story", result.Error))
		return
	}

	writeJsonResponse(w, createStoryResponse{StoryId: storyId})
}
