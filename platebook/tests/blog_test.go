package tests

import (
	"errors"
	"fmt"
	"testing"
)

func TestArticles(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	alice, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := alice.createArticle("mine", "sub", "text"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	articleId, err := admin.createArticle("knife skills", "basics", "hold it by the handle")
	if err != nil {
		t.Fatal(err)
	}
	if err := admin.uploadArticleImage(articleId); err != nil {
		t.Fatal(err)
	}

	articles, err := env.newClient().listArticles(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %v", articles)
	}

	article := articles[0]
	if article.Title != "knife skills" || article.Subtitle != "basics" || article.Text != "hold it by the handle" {
		t.Fatalf("unexpected article %+v", article)
	}
	if len(article.ImageURLs) == 0 {
		t.Fatal("expected image urls")
	}
	if article.UserId != admin.userId {
		t.Fatalf("expected author %v, got %v", admin.userId, article.UserId)
	}
}

func TestArticleListOrderAndCap(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 12; i++ {
		if _, err := admin.createArticle(fmt.Sprintf("post %d", i), "", ""); err != nil {
			t.Fatal(err)
		}
	}

	articles, err := env.newClient().listArticles(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 10 {
		t.Fatalf("expected cap of 10 articles, got %d", len(articles))
	}
	// Newest first.
	if articles[0].Title != "post 11" {
		t.Fatalf("expected newest article first, got %v", articles[0].Title)
	}

	articles, err = env.newClient().listArticles(3)
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(articles))
	}

	// A count above the cap is clamped, not honored.
	articles, err = env.newClient().listArticles(50)
	if err != nil {
		t.Fatal(err)
	}
	if len(articles) != 10 {
		t.Fatalf("expected cap of 10 articles, got %d", len(articles))
	}
}

func TestStories(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}
	alice, err := env.newUser("alice")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := alice.createStory("sneaky", 1); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}

	storyId, err := admin.createStory("market haul", 3)
	if err != nil {
		t.Fatal(err)
	}
	if storyId == "" {
		t.Fatal("expected story id")
	}

	stories, err := env.newClient().listStories()
	if err != nil {
		t.Fatal(err)
	}
	if len(stories) != 1 {
		t.Fatalf("expected 1 story, got %v", stories)
	}

	story := stories[0]
	if story.Title != "market haul" {
		t.Fatalf("unexpected story %+v", story)
	}
	if len(story.ThumbnailURLs) == 0 {
		t.Fatal("expected thumbnail urls")
	}
	if len(story.ItemURLs) != 3 {
		t.Fatalf("expected 3 items, got %d", len(story.ItemURLs))
	}
	for _, urls := range story.ItemURLs {
		if len(urls) == 0 {
			t.Fatal("expected item image urls")
		}
	}
}

func TestStoryListOrder(t *testing.T) {
	env := setupTestEnv(t)

	admin, err := env.adminClient()
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if _, err := admin.createStory(fmt.Sprintf("week %d", i), 1); err != nil {
			t.Fatal(err)
		}
	}

	stories, err := env.newClient().listStories()
	if err != nil {
		t.Fatal(err)
	}
	if len(stories) != 3 {
		t.Fatalf("expected 3 stories, got %d", len(stories))
	}
	// Newest first.
	if stories[0].Title != "week 2" || stories[2].Title != "week 0" {
		t.Fatalf("unexpected story order: %v, %v, %v", stories[0].Title, stories[1].Title, stories[2].Title)
	}
}
