package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/ikram-mever-codes/csb-backend/app/models"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/apperror"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/tokens"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/usercontext"
)

// HandleCreateToken issues a new API token for the authenticated user.
func HandleCreateToken(c *fiber.Ctx) error {
	var req struct {
		Type         string `json:"type"`
		WordpressURL string `json:"wordpressUrl"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "Invalid request body"))
	}

	token, err := tokenEngine.Issue(c.UserContext(), usercontext.GetUserID(c), tokens.IssueInput{
		Type:         req.Type,
		WordpressURL: req.WordpressURL,
	})
	if err != nil {
		return apperror.Respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "API token created successfully!",
		"token":   token,
	})
}

// HandleGetAllTokens lists the authenticated user's tokens.
func HandleGetAllTokens(c *fiber.Ctx) error {
	list, err := tokenEngine.List(c.UserContext(), usercontext.GetUserID(c))
	if err != nil {
		return apperror.Respond(c, err)
	}
	if len(list) == 0 {
		return apperror.Respond(c, apperror.New(apperror.KindNotFound, "No Tokens Found!"))
	}
	return c.JSON(fiber.Map{"tokens": list})
}

// HandleDeleteToken removes one of the authenticated user's tokens.
func HandleDeleteToken(c *fiber.Ctx) error {
	tokenID, err := strconv.ParseUint(c.Params("tokenId"), 10, 32)
	if err != nil {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "Token Id is required!"))
	}

	if err := tokenEngine.Delete(c.UserContext(), usercontext.GetUserID(c), uint(tokenID)); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Token Deleted Successfully!"})
}

// HandleVerifyToken resolves a token secret for automation callers. Public
// route; the secret is the credential.
func HandleVerifyToken(c *fiber.Ctx) error {
	secret := c.Params("apiToken")
	expectedType := c.Params("type")

	result, err := tokenEngine.Verify(c.UserContext(), secret, expectedType)
	if err != nil {
		kind := apperror.KindOf(err)
		msg := "Verification failed"
		var ae *apperror.Error
		if errors.As(err, &ae) {
			msg = ae.Message
		}
		body := fiber.Map{
			"success": false,
			"message": msg,
			"error":   string(kind),
		}
		// An expired subscription still identifies the owner so the caller
		// can point them at renewal.
		if result != nil {
			body["userId"] = result.UserID
		}
		return c.Status(apperror.HTTPStatus(kind)).JSON(body)
	}

	response := fiber.Map{
		"success": true,
		"userId":  result.UserID,
		"message": "Api Token Verified Successfully!",
	}
	if expectedType == models.TOKEN_TYPE_WORDPRESS {
		response["wpUrl"] = result.WordpressURL
	}
	return c.JSON(response)
}
