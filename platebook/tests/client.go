package tests

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"platebook/platebook/services"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
)

type client struct {
	api    chi.Router
	token  string
	userId string
}

type loginInfo struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

var ErrUnauthorized = errors.New("unauthorized")
var ErrNotFound = errors.New("not found")
var ErrConflict = errors.New("conflict")

func statusError(method, endpoint string, res *http.Response, body string) error {
	switch res.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrConflict
	}
	return fmt.Errorf("%v %v failed with status %d and res '%v'", method, endpoint, res.StatusCode, body)
}

func (c *client) do(method, endpoint string, body io.Reader, contentType string) (*httptest.ResponseRecorder, error) {
	req := httptest.NewRequest(method, endpoint, body)
	req.Header.Add("Authorization", fmt.Sprintf("Bearer %v", c.token))
	if contentType != "" {
		req.Header.Add("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	c.api.ServeHTTP(w, req)

	if w.Result().StatusCode != http.StatusOK {
		return nil, statusError(method, endpoint, w.Result(), w.Body.String())
	}
	return w, nil
}

func request[T any](c *client, method, endpoint string, body []byte) (T, error) {
	var data T

	w, err := c.do(method, endpoint, bytes.NewReader(body), "")
	if err != nil {
		return data, err
	}

	err = json.NewDecoder(w.Result().Body).Decode(&data)
	if err != nil {
		return data, err
	}

	return data, nil
}

func get[T any](c *client, endpoint string) (T, error) {
	return request[T](c, "GET", endpoint, nil)
}

func post[T any](c *client, endpoint string, body []byte) (T, error) {
	return request[T](c, "POST", endpoint, body)
}

func patch[T any](c *client, endpoint string, body []byte) (T, error) {
	return request[T](c, "PATCH", endpoint, body)
}

func deleteReq(c *client, endpoint string) error {
	_, err := c.do("DELETE", endpoint, nil, "")
	return err
}

type NoBody struct{}

// testImage is a small jpeg used for every upload in the tests.
func testImage() []byte {
	img := image.NewRGBA(image.Rect(0, 0, 320, 240))
	for x := 0; x < 320; x++ {
		for y := 0; y < 240; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

func (c *client) postImage(endpoint string) error {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	part, err := form.CreateFormFile("image", "test.jpg")
	if err != nil {
		return err
	}
	if _, err := part.Write(testImage()); err != nil {
		return err
	}
	if err := form.Close(); err != nil {
		return err
	}

	_, err = c.do("POST", endpoint, &body, form.FormDataContentType())
	return err
}

func (c *client) signup(email, password, name string) (loginInfo, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password, "name": name})
	if err != nil {
		return loginInfo{}, err
	}

	_, err = post[map[string]string](c, "/users/signup", body)
	if err != nil {
		return loginInfo{}, err
	}

	return loginInfo{Email: email, Password: password}, nil
}

func (c *client) login(login loginInfo) error {
	body, err := json.Marshal(login)
	if err != nil {
		return err
	}

	data, err := post[map[string]string](c, "/users/login", body)
	if err != nil {
		return err
	}

	c.token = data["access_token"]
	c.userId = data["user_id"]

	return nil
}

func (c *client) me() (services.UserInfo, error) {
	return get[services.UserInfo](c, "/users/me")
}

func (c *client) publicProfile(userId string) (services.PublicProfileInfo, error) {
	return get[services.PublicProfileInfo](c, "/users/"+userId)
}

func (c *client) updateMe(fields map[string]string) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	_, err = patch[NoBody](c, "/users/me", body)
	return err
}

func (c *client) uploadAvatar() error {
	return c.postImage("/users/me/image")
}

func (c *client) deleteMe() error {
	return deleteReq(c, "/users/me")
}

func (c *client) recoverPassword(email string) error {
	body := []byte(fmt.Sprintf(`{"email": "%v"}`, email))
	_, err := post[NoBody](c, "/users/recover", body)
	return err
}

func (c *client) listUsers() ([]services.UserInfo, error) {
	return get[[]services.UserInfo](c, "/users/list")
}

func (c *client) createGroup(name string) error {
	body := []byte(fmt.Sprintf(`{"name": "%v"}`, name))
	_, err := post[services.GroupInfo](c, "/groups/", body)
	return err
}

func (c *client) renameGroup(name, newName string) error {
	body := []byte(fmt.Sprintf(`{"name": "%v", "new_name": "%v"}`, name, newName))
	_, err := patch[NoBody](c, "/groups/", body)
	return err
}

func (c *client) deleteGroup(name string) error {
	return deleteReq(c, "/groups/"+name)
}

func (c *client) listGroups() ([]services.GroupInfo, error) {
	return get[[]services.GroupInfo](c, "/groups/list")
}

type membership struct {
	Email     string     `json:"email"`
	Group     string     `json:"group"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (c *client) addUserToGroup(email, group string, expiresAt *time.Time) error {
	body, err := json.Marshal(membership{Email: email, Group: group, ExpiresAt: expiresAt})
	if err != nil {
		return err
	}
	_, err = post[NoBody](c, "/groups/add-user", body)
	return err
}

func (c *client) removeUserFromGroup(email, group string) error {
	body, err := json.Marshal(membership{Email: email, Group: group})
	if err != nil {
		return err
	}
	_, err = post[NoBody](c, "/groups/remove-user", body)
	return err
}

type recipeIngredient struct {
	Name      string   `json:"name"`
	Groups    []string `json:"groups,omitempty"`
	Value     float64  `json:"value"`
	Dimension string   `json:"dimension"`
}

type recipeStep struct {
	Number  int    `json:"num"`
	Content string `json:"content"`
}

type recipeParams struct {
	Title         string             `json:"title"`
	Time          int                `json:"time"`
	Complexity    string             `json:"complexity"`
	Servings      int                `json:"servings"`
	Categories    []string           `json:"categories,omitempty"`
	AllowedGroups []string           `json:"allowed_groups,omitempty"`
	Steps         []recipeStep       `json:"steps,omitempty"`
	Ingredients   []recipeIngredient `json:"ingredients,omitempty"`
}

func (c *client) createRecipe(params recipeParams) (string, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return "", err
	}

	data, err := post[map[string]string](c, "/recipes/", body)
	if err != nil {
		return "", err
	}
	return data["recipe_id"], nil
}

func (c *client) updateRecipe(recipeId string, fields map[string]interface{}) error {
	body, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	_, err = patch[NoBody](c, "/recipes/"+recipeId, body)
	return err
}

func (c *client) getRecipe(recipeId string) (services.RecipeInfo, error) {
	return get[services.RecipeInfo](c, "/recipes/"+recipeId)
}

func (c *client) listRecipes(query url.Values) ([]services.RecipeListItem, error) {
	endpoint := "/recipes/"
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	return get[[]services.RecipeListItem](c, endpoint)
}

func (c *client) likedRecipes() ([]services.RecipeListItem, error) {
	return get[[]services.RecipeListItem](c, "/recipes/liked")
}

func (c *client) uploadRecipeImage(recipeId string) error {
	return c.postImage("/recipes/" + recipeId + "/image")
}

func (c *client) deleteRecipe(recipeId string) error {
	return deleteReq(c, "/recipes/"+recipeId)
}

func (c *client) toggleLike(recipeId string) (bool, error) {
	data, err := post[map[string]bool](c, "/recipes/"+recipeId+"/like", nil)
	if err != nil {
		return false, err
	}
	return data["liked"], nil
}

func (c *client) search(q string) (services.SearchResponse, error) {
	return get[services.SearchResponse](c, "/recipes/search?q="+url.QueryEscape(q))
}

func (c *client) listCategories() ([]services.CategoryInfo, error) {
	return get[[]services.CategoryInfo](c, "/recipes/categories")
}

func (c *client) getCategory(name string) (services.CategoryInfo, error) {
	return get[services.CategoryInfo](c, "/recipes/categories/"+name)
}

func (c *client) deleteCategory(name string) error {
	return deleteReq(c, "/recipes/categories/"+name)
}

func (c *client) listCompilations() ([]services.CompilationInfo, error) {
	return get[[]services.CompilationInfo](c, "/recipes/compilations")
}

func (c *client) createCompilation(name string, position int, recipeIds []string) (string, error) {
	body, err := json.Marshal(map[string]interface{}{
		"name": name, "position": position, "recipe_ids": recipeIds,
	})
	if err != nil {
		return "", err
	}

	data, err := post[map[string]string](c, "/recipes/compilations", body)
	if err != nil {
		return "", err
	}
	return data["compilation_id"], nil
}

func (c *client) uploadCompilationImage(compilationId string) error {
	return c.postImage("/recipes/compilations/" + compilationId + "/image")
}

func (c *client) listIngredients() ([]string, error) {
	return get[[]string](c, "/recipes/ingredients")
}

func (c *client) listDimensions() ([]string, error) {
	return get[[]string](c, "/recipes/dimensions")
}

func (c *client) listIngredientGroups() ([]string, error) {
	return get[[]string](c, "/recipes/ingredient-groups")
}

func (c *client) createArticle(title, subtitle, text string) (string, error) {
	body, err := json.Marshal(map[string]string{"title": title, "subtitle": subtitle, "text": text})
	if err != nil {
		return "", err
	}

	data, err := post[map[string]string](c, "/blog/articles", body)
	if err != nil {
		return "", err
	}
	return data["article_id"], nil
}

func (c *client) uploadArticleImage(articleId string) error {
	return c.postImage("/blog/articles/" + articleId + "/image")
}

func (c *client) listArticles(count int) ([]services.ArticleInfo, error) {
	endpoint := "/blog/articles"
	if count > 0 {
		endpoint += fmt.Sprintf("?count=%d", count)
	}
	return get[[]services.ArticleInfo](c, endpoint)
}

func (c *client) createStory(title string, numImages int) (string, error) {
	var body bytes.Buffer
	form := multipart.NewWriter(&body)

	if err := form.WriteField("title", title); err != nil {
		return "", err
	}

	thumb, err := form.CreateFormFile("thumbnail", "thumb.jpg")
	if err != nil {
		return "", err
	}
	if _, err := thumb.Write(testImage()); err != nil {
		return "", err
	}

	for i := 0; i < numImages; i++ {
		part, err := form.CreateFormFile("images", fmt.Sprintf("item%d.jpg", i))
		if err != nil {
			return "", err
		}
		if _, err := part.Write(testImage()); err != nil {
			return "", err
		}
	}

	if err := form.Close(); err != nil {
		return "", err
	}

	w, err := c.do("POST", "/blog/stories", &body, form.FormDataContentType())
	if err != nil {
		return "", err
	}

	var data map[string]string
	if err := json.NewDecoder(w.Result().Body).Decode(&data); err != nil {
		return "", err
	}
	return data["story_id"], nil
}

func (c *client) listStories() ([]services.StoryInfo, error) {
	return get[[]services.StoryInfo](c, "/blog/stories")
}
