package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ikram-mever-codes/csb-backend/app/repository"
	"github.com/ikram-mever-codes/csb-backend/internal/pkg/apperror"
)

// HandleGetAllUsers lists all verified accounts, newest first.
func HandleGetAllUsers(c *fiber.Ctx) error {
	users, err := repository.GetGlobalFactory().GetUserRepository().ListVerified()
	if err != nil {
		return apperror.Respond(c, err)
	}
	if len(users) == 0 {
		return apperror.Respond(c, apperror.New(apperror.KindNotFound, "No Users Found!"))
	}
	return c.JSON(fiber.Map{"users": users})
}

// HandleGetSingleUserDetails returns one user's account, subscription,
// tokens and invoice history.
func HandleGetSingleUserDetails(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "Invalid user id"))
	}

	factory := repository.GetGlobalFactory()
	user, err := factory.GetUserRepository().GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Respond(c, apperror.New(apperror.KindNotFound, "User Not Found!"))
		}
		return apperror.Respond(c, err)
	}

	sub, err := factory.GetSubscriptionRepository().GetByUserID(user.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.Respond(c, err)
	}

	apiTokens, err := factory.GetTokenRepository().ListByUserID(user.ID)
	if err != nil {
		return apperror.Respond(c, err)
	}

	transactions, err := factory.GetInvoiceRepository().ListByCustomerEmail(user.Email)
	if err != nil {
		return apperror.Respond(c, err)
	}

	return c.JSON(fiber.Map{
		"user": fiber.Map{
			"user":         user,
			"subscription": sub,
			"apiTokens":    apiTokens,
			"transactions": transactions,
		},
	})
}

// HandleDeleteUserAccount removes an account and cascades its subscription
// and tokens. Invoices stay; they are the accounting trail.
func HandleDeleteUserAccount(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "Invalid user id"))
	}

	factory := repository.GetGlobalFactory()
	user, err := factory.GetUserRepository().GetByID(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Respond(c, apperror.New(apperror.KindNotFound, "User Not Found!"))
		}
		return apperror.Respond(c, err)
	}

	if err := factory.GetTokenRepository().DeleteByUserID(user.ID); err != nil {
		return apperror.Respond(c, err)
	}
	if err := factory.GetSubscriptionRepository().DeleteByUserID(user.ID); err != nil {
		return apperror.Respond(c, err)
	}
	if err := factory.GetUserRepository().Delete(user.ID); err != nil {
		return apperror.Respond(c, err)
	}

	return c.JSON(fiber.Map{"message": "User Account Deleted Successfully!"})
}

// HandleChangeMembershipType switches a user's plan without a charge.
func HandleChangeMembershipType(c *fiber.Ctx) error {
	var req struct {
		UserID uint   `json:"userId"`
		Plan   string `json:"plan"`
	}
	if err := c.BodyParser(&req); err != nil || req.UserID == 0 || req.Plan == "" {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "Incomplete Fields!"))
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(req.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Respond(c, apperror.New(apperror.KindNotFound, "User Not Found!"))
		}
		return apperror.Respond(c, err)
	}
	if !user.IsVerified {
		return apperror.Respond(c, apperror.New(apperror.KindNotFound, "User Not Found!"))
	}

	if err := billingService.ChangePlan(c.UserContext(), user.ID, req.Plan); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "User Subscription Type Changed Successfully!"})
}

// HandleGetUsersCount returns the total account count.
func HandleGetUsersCount(c *fiber.Ctx) error {
	count, err := repository.GetGlobalFactory().GetUserRepository().Count()
	if err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"usersCount": count})
}

// HandleReprojectUser rewrites a user's entitlement summary from the
// canonical subscription row. Repair surface for a failed projection write.
func HandleReprojectUser(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return apperror.Respond(c, apperror.New(apperror.KindValidation, "Invalid user id"))
	}
	if err := billingService.Reproject(c.UserContext(), uint(id)); err != nil {
		return apperror.Respond(c, err)
	}
	return c.JSON(fiber.Map{"message": "User Subscription Reprojected Successfully!"})
}
