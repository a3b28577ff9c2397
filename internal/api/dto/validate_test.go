package dto

import "testing"

func TestValidateLoginForm(t *testing.T) {
	if problems := Validate(LoginForm{Email: "admin@example.com", Password: "secret123"}); problems != nil {
		t.Fatalf("valid form flagged: %v", problems)
	}

	problems := Validate(LoginForm{Email: "not-an-email", Password: "short"})
	if _, ok := problems["email"]; !ok {
		t.Errorf("email problem missing: %v", problems)
	}
	if _, ok := problems["password"]; !ok {
		t.Errorf("password problem missing: %v", problems)
	}
}

func TestValidateRegisterFormConfirmation(t *testing.T) {
	form := RegisterForm{
		UserName:        "nour",
		Email:           "nour@example.com",
		Country:         "Egypt",
		PhoneNumber:     "01000000000",
		Password:        "secret123",
		ConfirmPassword: "different",
	}
	problems := Validate(form)
	if msg, ok := problems["confirmPassword"]; !ok || msg != "values do not match" {
		t.Errorf("confirmation mismatch not reported: %v", problems)
	}
}

func TestValidateRecipeForm(t *testing.T) {
	problems := Validate(RecipeForm{Name: "koshari", Description: "classic", Price: "thirty", TagID: 1})
	if _, ok := problems["price"]; !ok {
		t.Errorf("non-numeric price not reported: %v", problems)
	}
	if _, ok := problems["categoriesIds"]; !ok {
		t.Errorf("missing category not reported: %v", problems)
	}

	if problems := Validate(RecipeForm{Name: "koshari", Description: "classic", Price: "35.5", CategoryID: 2, TagID: 1}); problems != nil {
		t.Fatalf("valid recipe flagged: %v", problems)
	}
}
