package utils

import (
	"github.com/SundayYogurt/school_service/internal/helper"
	"github.com/gofiber/fiber/v2"
)

const ServerErrorMessage = "Server error"

func ResponseError(ctx *fiber.Ctx, status int, msg string) error {
	return ctx.Status(status).JSON(fiber.Map{
		"success": false,
		"message": msg,
	})
}

func ResponseValidation(ctx *fiber.Ctx, msg string, fields []helper.FieldError) error {
	return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"message": msg,
		"errors":  fields,
	})
}

// create a generic response function for success
func ResponseSuccess(ctx *fiber.Ctx, status int, data interface{}) error {
	return ctx.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

func ResponseMessage(ctx *fiber.Ctx, status int, msg string) error {
	return ctx.Status(status).JSON(fiber.Map{"success": true, "message": msg})
}

func ResponseCreated(ctx *fiber.Ctx, msg string, data interface{}) error {
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": msg,
		"data":    data,
	})
}
