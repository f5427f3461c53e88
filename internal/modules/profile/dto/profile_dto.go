package dto

// UpsertProfileRequest carries the profile form. Optional fields that are nil
// or empty leave the stored value untouched.
type UpsertProfileRequest struct {
	Company        *string `json:"company"`
	Website        *string `json:"website"`
	Location       *string `json:"location"`
	Status         string  `json:"status" binding:"required"`
	Skills         string  `json:"skills" binding:"required"`
	Bio            *string `json:"bio"`
	GithubUsername *string `json:"githubusername"`

	YouTube   *string `json:"youtube"`
	Twitter   *string `json:"twitter"`
	Facebook  *string `json:"facebook"`
	LinkedIn  *string `json:"linkedin"`
	Instagram *string `json:"instagram"`
}

type ExperienceRequest struct {
	Title       string `json:"title" binding:"required"`
	Company     string `json:"company" binding:"required"`
	Location    string `json:"location"`
	From        string `json:"from" binding:"required,date"`
	To          string `json:"to" binding:"date"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

type EducationRequest struct {
	School       string `json:"school" binding:"required"`
	Degree       string `json:"degree" binding:"required"`
	FieldOfStudy string `json:"fieldofstudy" binding:"required"`
	From         string `json:"from" binding:"required,date"`
	To           string `json:"to" binding:"date"`
	Current      bool   `json:"current"`
	Description  string `json:"description"`
}
