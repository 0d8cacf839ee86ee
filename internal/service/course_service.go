package service

import (
	"fmt"
	"time"

	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
)

// CourseService 课程侧的创作面：课程/章节/课时 CRUD 和测验编写、发布。
// 所有写操作都只对课程 owner 开放，非 owner 一律按"课程不存在"处理，
// 不暴露课程 ID 是否有效。
type CourseService struct {
	CourseRepo    *repository.CourseRepository
	QuizRepo      *repository.QuizRepository
	Notifications *NotificationService
}

func NewCourseService(
	courseRepo *repository.CourseRepository,
	quizRepo *repository.QuizRepository,
	notifications *NotificationService,
) *CourseService {
	return &CourseService{
		CourseRepo:    courseRepo,
		QuizRepo:      quizRepo,
		Notifications: notifications,
	}
}

// ownedCourse 加载课程并校验归属，失败统一返回 ErrCourseNotFound
func (s *CourseService) ownedCourse(courseID, ownerID uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		return nil, util.ErrCourseNotFound
	}
	if course.OwnerID != ownerID {
		return nil, util.ErrCourseNotFound
	}
	return course, nil
}

func (s *CourseService) CreateCourse(course *model.Course) error {
	return s.CourseRepo.Create(course)
}

func (s *CourseService) UpdateCourse(courseID, ownerID uint, title, description, coverURL string) (*model.Course, error) {
	course, err := s.ownedCourse(courseID, ownerID)
	if err != nil {
		return nil, err
	}
	if title != "" {
		course.Title = title
	}
	if description != "" {
		course.Description = description
	}
	if coverURL != "" {
		course.CoverURL = coverURL
	}
	if err := s.CourseRepo.Update(course); err != nil {
		return nil, err
	}
	return course, nil
}

func (s *CourseService) GetCourse(courseID uint) (*model.Course, error) {
	course, err := s.CourseRepo.FindByID(courseID)
	if err != nil {
		return nil, util.ErrCourseNotFound
	}
	return course, nil
}

func (s *CourseService) ListOwnedCourses(ownerID uint, page, limit int) ([]model.Course, int64, error) {
	return s.CourseRepo.ListByOwner(ownerID, page, limit)
}

func (s *CourseService) CreateModule(courseID, ownerID uint, title string, position int) (*model.CourseModule, error) {
	if _, err := s.ownedCourse(courseID, ownerID); err != nil {
		return nil, err
	}
	m := &model.CourseModule{
		CourseID: courseID,
		Title:    title,
		Position: position,
	}
	if err := s.CourseRepo.CreateModule(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *CourseService) ListModules(courseID uint) ([]model.CourseModule, error) {
	return s.CourseRepo.ListModules(courseID)
}

func (s *CourseService) GetModule(moduleID uint) (*model.CourseModule, error) {
	m, err := s.CourseRepo.FindModuleByID(moduleID)
	if err != nil {
		return nil, util.ErrModuleNotFound
	}
	return m, nil
}

// CreateLesson 新建课时并向已报名学员扇出通知。
// 扇出只入队，投递由后台 worker 完成。
func (s *CourseService) CreateLesson(moduleID, ownerID uint, title, content string, position int) (*model.Lesson, error) {
	m, err := s.CourseRepo.FindModuleByID(moduleID)
	if err != nil {
		return nil, util.ErrModuleNotFound
	}
	course, err := s.ownedCourse(m.CourseID, ownerID)
	if err != nil {
		return nil, err
	}

	lesson := &model.Lesson{
		ModuleID: moduleID,
		CourseID: m.CourseID,
		Title:    title,
		Content:  content,
		Position: position,
	}
	if err := s.CourseRepo.CreateLesson(lesson); err != nil {
		return nil, err
	}

	if s.Notifications != nil {
		s.Notifications.Enqueue(PublishEvent{
			CourseID:   course.ID,
			ContentRef: fmt.Sprintf("lesson:%d", lesson.ID),
			Title:      fmt.Sprintf("新课时：%s", lesson.Title),
			Body:       fmt.Sprintf("课程《%s》发布了新课时「%s」", course.Title, lesson.Title),
		})
	}
	return lesson, nil
}

func (s *CourseService) ListLessons(moduleID uint) ([]model.Lesson, error) {
	return s.CourseRepo.ListLessons(moduleID)
}

func (s *CourseService) CreateQuiz(courseID, ownerID uint, title, description string, timeLimitMinutes int) (*model.Quiz, error) {
	if _, err := s.ownedCourse(courseID, ownerID); err != nil {
		return nil, err
	}
	quiz := &model.Quiz{
		CourseID:         courseID,
		Title:            title,
		Description:      description,
		TimeLimitMinutes: timeLimitMinutes,
	}
	if err := s.QuizRepo.Create(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

func (s *CourseService) ListQuizzes(courseID uint) ([]model.Quiz, error) {
	return s.QuizRepo.ListByCourse(courseID)
}

type ChoiceInput struct {
	Text      string `json:"text" binding:"required"`
	IsCorrect bool   `json:"isCorrect"`
	Position  int    `json:"position"`
}

type QuestionInput struct {
	QuestionType string        `json:"questionType"`
	Text         string        `json:"text" binding:"required"`
	Points       int           `json:"points"`
	Position     int           `json:"position"`
	Choices      []ChoiceInput `json:"choices" binding:"required,min=2"`
}

// AddQuestion 往未发布的测验里加题。已发布的测验题目冻结，
// 否则进行中的作答会被改分
func (s *CourseService) AddQuestion(quizID, ownerID uint, in QuestionInput) (*model.QuizQuestion, error) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		return nil, util.ErrQuizNotFound
	}
	if _, err := s.ownedCourse(quiz.CourseID, ownerID); err != nil {
		return nil, util.ErrQuizNotFound
	}
	if quiz.IsPublished {
		return nil, util.ErrQuizPublished
	}

	if in.QuestionType == "" {
		in.QuestionType = model.QuestionTypeMultipleChoice
	}
	if in.Points <= 0 {
		in.Points = 1
	}

	q := &model.QuizQuestion{
		QuizID:       quizID,
		QuestionType: in.QuestionType,
		Text:         in.Text,
		Points:       in.Points,
		Position:     in.Position,
	}
	if err := s.QuizRepo.CreateQuestion(q); err != nil {
		return nil, err
	}

	choices := make([]model.QuizChoice, 0, len(in.Choices))
	for _, c := range in.Choices {
		choices = append(choices, model.QuizChoice{
			QuestionID: q.ID,
			Text:       c.Text,
			IsCorrect:  c.IsCorrect,
			Position:   c.Position,
		})
	}
	if err := s.QuizRepo.CreateChoices(choices); err != nil {
		return nil, err
	}
	q.Choices = choices
	return q, nil
}

func (s *CourseService) DeleteQuestion(questionID, ownerID uint) error {
	q, err := s.QuizRepo.FindQuestionByID(questionID)
	if err != nil {
		return util.ErrQuestionNotFound
	}
	quiz, err := s.QuizRepo.FindByID(q.QuizID)
	if err != nil {
		return util.ErrQuestionNotFound
	}
	if _, err := s.ownedCourse(quiz.CourseID, ownerID); err != nil {
		return util.ErrQuestionNotFound
	}
	if quiz.IsPublished {
		return util.ErrQuizPublished
	}
	return s.QuizRepo.DeleteQuestion(questionID)
}

// PublishQuiz 发布测验并对报名学员扇出通知。重复发布是幂等的：
// 不更新发布时间，也不会触发第二轮通知（幂等键兜底）。
func (s *CourseService) PublishQuiz(quizID, ownerID uint) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindByID(quizID)
	if err != nil {
		return nil, util.ErrQuizNotFound
	}
	course, err := s.ownedCourse(quiz.CourseID, ownerID)
	if err != nil {
		return nil, util.ErrQuizNotFound
	}
	if quiz.IsPublished {
		return quiz, nil
	}

	now := time.Now()
	quiz.IsPublished = true
	quiz.PublishedAt = &now
	if err := s.QuizRepo.Update(quiz); err != nil {
		return nil, err
	}

	if s.Notifications != nil {
		s.Notifications.Enqueue(PublishEvent{
			CourseID:   course.ID,
			ContentRef: fmt.Sprintf("quiz:%d", quiz.ID),
			Title:      fmt.Sprintf("新测验：%s", quiz.Title),
			Body:       fmt.Sprintf("课程《%s》发布了测验「%s」，快去作答吧", course.Title, quiz.Title),
		})
	}
	return quiz, nil
}
