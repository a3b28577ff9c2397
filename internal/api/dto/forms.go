package dto

// Form payloads parsed from the screens. Validation tags mirror the rules
// the screens have always enforced: email format, six-character password
// minimum, confirmation equality, four-digit OTP minimum.

// LoginForm is the login screen payload.
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required,min=6"`
}

// RegisterForm is the self-registration payload.
type RegisterForm struct {
	UserName        string `form:"userName" validate:"required"`
	Email           string `form:"email" validate:"required,email"`
	Country         string `form:"country" validate:"required"`
	PhoneNumber     string `form:"phoneNumber" validate:"required"`
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=Password"`
}

// ForgotPasswordForm requests an OTP seed.
type ForgotPasswordForm struct {
	Email string `form:"email" validate:"required,email"`
}

// ResetPasswordForm completes a reset with the emailed seed.
type ResetPasswordForm struct {
	Email           string `form:"email" validate:"required,email"`
	Seed            string `form:"seed" validate:"required,min=4"`
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirmPassword" validate:"required,eqfield=Password"`
}

// VerifyAccountForm confirms a new account.
type VerifyAccountForm struct {
	Email string `form:"email" validate:"required,email"`
	Code  string `form:"code" validate:"required"`
}

// ChangePasswordForm updates the caller's password.
type ChangePasswordForm struct {
	OldPassword        string `form:"oldPassword" validate:"required"`
	NewPassword        string `form:"newPassword" validate:"required,min=6"`
	ConfirmNewPassword string `form:"confirmNewPassword" validate:"required,eqfield=NewPassword"`
}

// CategoryForm creates or renames a category.
type CategoryForm struct {
	Name string `form:"name" validate:"required"`
}

// RecipeForm creates or updates a recipe. The image arrives as a separate
// multipart file and is handled outside validation.
type RecipeForm struct {
	Name        string `form:"name" validate:"required"`
	Description string `form:"description" validate:"required"`
	Price       string `form:"price" validate:"required,numeric"`
	CategoryID  int    `form:"categoriesIds" validate:"required,gt=0"`
	TagID       int    `form:"tagId" validate:"required,gt=0"`
}

// FavouriteForm marks a recipe.
type FavouriteForm struct {
	RecipeID int `form:"recipeId" validate:"required,gt=0"`
}
