package blogservice

import (
	"github.com/MishraShardendu22/blog-backend/internal/common"
)

func validateTitle(v *common.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 1, 255), "title", "must not be more than 255 characters long")
}

func validateContent(v *common.Validator, content string) {
	v.Check(content != "", "content", "must be provided")
}

func validateImageURL(v *common.Validator, image string) {
	v.Check(image != "", "image", "must be provided")
	v.Check(v.CheckAbsoluteURL(image), "image", "must be a valid absolute URL")
}

func validateCommentContent(v *common.Validator, content string) {
	v.Check(content != "", "content", "must be provided")
	v.Check(v.CheckStringLength(content, 1, 500), "content", "must not be more than 500 characters long")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}
