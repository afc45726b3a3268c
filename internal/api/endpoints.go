package api

import (
	"context"
	"errors"
	"net/http"

	"prhealth/internal/model"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges email and password for a credential. No bearer header is
// sent.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out loginResponse
	err := c.do(ctx, c.plain, http.MethodPost, "/users/login", loginRequest{Email: email, Password: password}, &out)
	if err != nil {
		var rerr *RequestError
		if errors.As(err, &rerr) && rerr.Status == http.StatusUnauthorized {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.New("login: response carried no access_token")
	}
	return out.AccessToken, nil
}

// — projects ————————————————————————————————————————————————————————————————

func (c *Client) ListProjects(ctx context.Context) ([]model.Project, error) {
	var out []model.Project
	if err := c.get(ctx, "/projects/getAll", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateProject(ctx context.Context, p model.NewProject) (model.Project, error) {
	var out model.Project
	err := c.post(ctx, "/projects/create", p, &out)
	return out, err
}

func (c *Client) DeleteProject(ctx context.Context, id int) error {
	return c.delete(ctx, pathf("/projects/%s", id))
}

func (c *Client) ListPullRequests(ctx context.Context, projectID int) ([]model.PullRequest, error) {
	var out []model.PullRequest
	if err := c.get(ctx, pathf("/projects/%s/pull-requests", projectID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PullRequestSummary(ctx context.Context, projectID int) (model.PRSummary, error) {
	var out model.PRSummary
	err := c.get(ctx, pathf("/projects/%s/pull-requests/summary", projectID), &out)
	return out, err
}

// — members —————————————————————————————————————————————————————————————————

func (c *Client) ListMembers(ctx context.Context, projectID int) ([]model.Member, error) {
	var out []model.Member
	if err := c.get(ctx, pathf("/projects/%s/users", projectID), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) AssignMember(ctx context.Context, projectID, userID int) error {
	return c.do(ctx, c.authed, http.MethodPost, pathf("/projects/%s/assign/%s", projectID, userID), struct{}{}, nil)
}

func (c *Client) RemoveMember(ctx context.Context, projectID, userID int) error {
	return c.delete(ctx, pathf("/projects/%s/users/%s", projectID, userID))
}

// — users ———————————————————————————————————————————————————————————————————

func (c *Client) ListTechLeads(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if err := c.get(ctx, "/users/getAllTechLeads", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateUser(ctx context.Context, u model.NewUser) (model.User, error) {
	var out model.User
	err := c.post(ctx, "/users/createUser", u, &out)
	return out, err
}

func (c *Client) DeleteUser(ctx context.Context, id int) error {
	return c.delete(ctx, pathf("/users/%s", id))
}
