package controllers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ikram-mever-codes/csb-backend/app/models"
	"github.com/ikram-mever-codes/csb-backend/app/repository"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/apperror"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/env"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/mail"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/middleware"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/usercontext"
)

type signUpRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// HandleSignUp registers a new account and mails a verification code. An
// unverified account can be re-registered; a verified email cannot.
func HandleSignUp(c *fiber.Ctx) error {
	var req signUpRequest
	if err := c.BodyParser(&req); err != nil {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "Invalid request body"))
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "All the Fields are Required!"))
	}

	users := repository.GetGlobalFactory().GetUserRepository()
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := users.GetByEmail(email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Respond(c, err)
	}
	if user != nil && user.IsVerified {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "Invalid Email! Please Try Again."))
	}

	isNew := user == nil
	if isNew {
		user, err = models.CreateUser(req.FirstName, req.LastName, email, req.Password)
		if err != nil {
			return apperror.Respond(c, apperror.Wrap(apperror.KindValidation, "Invalid sign up data", err))
		}
	} else {
		user.FirstName = req.FirstName
		user.LastName = req.LastName
		if err := user.SetPassword(req.Password); err != nil {
			return apperror.Respond(c, err)
		}
	}

	code, err := user.GenerateVerificationCode()
	if err != nil {
		return apperror.Respond(c, err)
	}

	if isNew {
		err = users.Create(user)
	} else {
		err = users.Update(user)
	}
	if err != nil {
		return apperror.Respond(c, err)
	}

	subject, body := mail.VerificationEmail(user.FirstName, code)
	if err := mail.SendMail(user.Email, subject, body); err != nil {
		return apperror.Respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    fmt.Sprintf("Verification Code Sent to %s", user.Email),
		"codeExpiry": user.VerificationCodeExpiresAt,
	})
}

// HandleResendCode re-issues the verification code for an unverified
// account.
func HandleResendCode(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "Email is Required!"))
	}

	users := repository.GetGlobalFactory().GetUserRepository()
	user, err := users.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Respond(c, apperror.New(apperror.KindNotFound, "Account not Found!"))
		}
		return apperror.Respond(c, err)
	}
	if user.IsVerified {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "Invalid Email! Please Try Again."))
	}

	code, err := user.GenerateVerificationCode()
	if err != nil {
		return apperror.Respond(c, err)
	}
	if err := users.Update(user); err != nil {
		return apperror.Respond(c, err)
	}

	subject, body := mail.VerificationEmail(user.FirstName, code)
	if err := mail.SendMail(user.Email, subject, body); err != nil {
		return apperror.Respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":    fmt.Sprintf("Verification Code Re Sent to %s", user.Email),
		"codeExpiry": user.VerificationCodeExpiresAt,
	})
}

// HandleVerifyAccount checks the emailed code, marks the account verified
// and opens a session.
func HandleVerifyAccount(c *fiber.Ctx) error {
	var req struct {
		Email            string `json:"email"`
		VerificationCode string `json:"verificationCode"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.VerificationCode == "" {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "Verification Failed! Incomplete Credentials."))
	}

	users := repository.GetGlobalFactory().GetUserRepository()
	user, err := users.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Respond(c, apperror.New(apperror.KindNotFound, "Email Not Found! Please Try Again"))
		}
		return apperror.Respond(c, err)
	}
	if user.IsVerified {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "Verification Failed: Account Already Verified"))
	}
	if !user.CheckVerificationCode(req.VerificationCode) {
		return apperror.Respond(c, apperror.New(apperror.KindVerificationFailed, "Incorrect Code! Please Try Again."))
	}

	user.ClearVerificationCode()
	user.IsVerified = true
	if err := users.Update(user); err != nil {
		return apperror.Respond(c, err)
	}

	token, err := tokenMaker.Generate(user.ID)
	if err != nil {
		return apperror.Respond(c, err)
	}
	middleware.WriteSessionCookie(c, token, tokenMaker.TTL())

	return c.JSON(fiber.Map{"message": "Verification Successful!"})
}

// HandleLogin authenticates by email and password and opens a session.
// Unknown and unverified accounts produce the same response.
func HandleLogin(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "Please fill all the Credentials!"))
	}

	users := repository.GetGlobalFactory().GetUserRepository()
	user, err := users.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Respond(c, apperror.New(apperror.KindInvalidToken, "Invalid Email! Please Try Again."))
		}
		return apperror.Respond(c, err)
	}
	if !user.IsVerified {
		return apperror.Respond(c, apperror.New(apperror.KindInvalidToken, "Invalid Email! Please Try Again."))
	}
	if !user.CheckPassword(req.Password) {
		return apperror.Respond(c, apperror.New(apperror.KindInvalidToken, "Incorrect Password! Please Try Again."))
	}

	token, err := tokenMaker.Generate(user.ID)
	if err != nil {
		return apperror.Respond(c, err)
	}
	middleware.WriteSessionCookie(c, token, tokenMaker.TTL())

	now := time.Now()
	user.LastLoginAt = &now
	_ = users.Update(user)

	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Welcome Back %s!", user.FirstName),
		"user":    user,
	})
}

// HandleLogout clears the session cookie.
func HandleLogout(c *fiber.Ctx) error {
	middleware.ClearSessionCookie(c)
	return c.JSON(fiber.Map{"message": "User Logged Out!"})
}

// HandleRefresh returns the authenticated user. The auth middleware has
// already slid the session window by the time this runs.
func HandleRefresh(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"user": usercontext.GetUser(c)})
}

// HandleEditProfile updates name, phone number and avatar.
func HandleEditProfile(c *fiber.Ctx) error {
	var req struct {
		FirstName   string `json:"firstName"`
		LastName    string `json:"lastName"`
		PhoneNumber string `json:"phoneNumber"`
		Avatar      string `json:"avatar"`
	}
	if err := c.BodyParser(&req); err != nil {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "Invalid request body"))
	}

	users := repository.GetGlobalFactory().GetUserRepository()
	user, err := users.GetByID(usercontext.GetUserID(c))
	if err != nil {
		return apperror.Respond(c, err)
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.PhoneNumber != "" {
		phone := req.PhoneNumber
		user.PhoneNumber = &phone
	}
	if req.Avatar != "" {
		user.AvatarURL = req.Avatar
	}

	if err := users.Update(user); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Profile Updated", "user": user})
}

// HandleChangePassword rotates the password after checking the current one.
func HandleChangePassword(c *fiber.Ctx) error {
	var req struct {
		CurrentPassword    string `json:"currentPassword"`
		NewPassword        string `json:"newPassword"`
		ConfirmNewPassword string `json:"confirmNewPassword"`
	}
	if err := c.BodyParser(&req); err != nil || req.CurrentPassword == "" || req.NewPassword == "" || req.ConfirmNewPassword == "" {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "All fields are required!"))
	}
	if req.NewPassword != req.ConfirmNewPassword {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "New passwords do not match"))
	}
	if req.CurrentPassword == req.NewPassword {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "Current and New Password Can't be same"))
	}

	users := repository.GetGlobalFactory().GetUserRepository()
	user, err := users.GetByID(usercontext.GetUserID(c))
	if err != nil {
		return apperror.Respond(c, err)
	}
	if !user.CheckPassword(req.CurrentPassword) {
		return apperror.Respond(c, apperror.New(apperror.KindInvalidToken, "Incorrect current password!"))
	}
	if err := user.SetPassword(req.NewPassword); err != nil {
		return apperror.Respond(c, err)
	}
	if err := users.Update(user); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password changed successfully!"})
}

// HandleForgotPassword mails a reset link valid for one hour.
func HandleForgotPassword(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil || req.Email == "" {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "Email is Required!"))
	}

	users := repository.GetGlobalFactory().GetUserRepository()
	user, err := users.GetByEmail(strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Respond(c, apperror.New(apperror.KindNotFound, "Account not Found!"))
		}
		return apperror.Respond(c, err)
	}

	if err := user.GenerateResetToken(); err != nil {
		return apperror.Respond(c, err)
	}
	if err := users.Update(user); err != nil {
		return apperror.Respond(c, err)
	}

	base := strings.TrimRight(env.GetEnv("FRONTEND_URL", env.GetEnv("PUBLIC_DOMAIN", "")), "/")
	resetURL := fmt.Sprintf("%s/reset-password?token=%s", base, user.ResetToken)
	subject, body := mail.ResetPasswordEmail(user.FirstName, resetURL)
	if err := mail.SendMail(user.Email, subject, body); err != nil {
		return apperror.Respond(c, err)
	}

	return c.JSON(fiber.Map{"message": fmt.Sprintf("Password Reset Link Sent to %s", user.Email)})
}

// HandleResetPassword sets a new password from a valid reset token.
func HandleResetPassword(c *fiber.Ctx) error {
	var req struct {
		Token       string `json:"token"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.BodyParser(&req); err != nil || req.Token == "" || req.NewPassword == "" {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "Token and new password are required!"))
	}

	users := repository.GetGlobalFactory().GetUserRepository()
	user, err := users.GetByResetToken(req.Token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Respond(c, apperror.New(apperror.KindInvalidToken, "Invalid or Expired Reset Link!"))
		}
		return apperror.Respond(c, err)
	}
	if !user.IsResetTokenValid(req.Token) {
		return apperror.Respond(c, apperror.New(apperror.KindInvalidToken, "Invalid or Expired Reset Link!"))
	}

	if err := user.SetPassword(req.NewPassword); err != nil {
		return apperror.Respond(c, err)
	}
	user.ClearResetToken()
	if err := users.Update(user); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "Password Reset Successfully! Please Login."})
}
