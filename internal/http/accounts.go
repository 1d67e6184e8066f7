package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"blog-api/internal/apperr"
)

type credentialsRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

func (h *Handler) signup(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		h.writeError(c, invalidInput(err))
		return
	}

	user, err := h.accounts.Signup(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, signupResponse{
		Message: "Signup successful",
		User:    userToResponse(*user),
	})
}

func (h *Handler) login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBind(&req); err != nil {
		h.writeError(c, invalidInput(err))
		return
	}

	user, token, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie("token", token, int(h.cfg.TokenTTL.Seconds()), "/", "", h.cfg.SecureCookie, true)
	c.JSON(http.StatusOK, loginResponse{
		Message: "Login successful",
		Token:   token,
		ID:      user.ID,
	})
}

func invalidInput(err error) error {
	return oops.Code(apperr.CodeInvalidInput).Wrapf(err, "invalid request body")
}
